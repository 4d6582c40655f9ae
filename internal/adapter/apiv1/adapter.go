package apiv1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/config"
	"github.com/mickthaweevit/number-watcher/internal/interfaces"
	"github.com/mickthaweevit/number-watcher/internal/model"
	"github.com/mickthaweevit/number-watcher/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// 上游的哨兵值（泰文）："รอผล"=等待开奖，"ยกเลิก"=已取消
const (
	sentinelWaiting   = "รอผล"
	sentinelCancelled = "ยกเลิก"
)

type Adapter struct {
	cfg        *config.ProviderConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAdapter(cfg *config.ProviderConfig, logger *logrus.Logger) interfaces.Provider {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetName ========== 实现Provider接口 ==========
func (a *Adapter) GetName() string {
	return model.SourceV1
}

// Fetch 拉取指定业务日期的开奖数据。
// v1上游按发布节奏取前一天17:00(UTC)的数据，偏移在这里统一处理
func (a *Adapter) Fetch(ctx context.Context, date time.Time) (*model.RawPayload, error) {
	if a.cfg.BaseURL == "" {
		return nil, fmt.Errorf("v1上游地址未配置")
	}

	shifted := date.UTC().AddDate(0, 0, -1)
	apiDate := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 17, 0, 0, 0, time.UTC).
		Format("2006-01-02T15:04:05.000Z")
	url := fmt.Sprintf("%s?dateCurrent=%s", a.cfg.BaseURL, apiDate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建v1请求失败: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求v1接口失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭v1响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("v1接口返回状态码%d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取v1响应失败: %w", err)
	}

	var data model.V1Response
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("解析v1响应失败: %w", err)
	}

	a.logger.Infof("成功获取v1数据，分类数%d，响应%d字节", len(data), len(body))
	return &model.RawPayload{
		Source: model.SourceV1,
		Size:   int64(len(body)),
		Data:   data,
	}, nil
}

// Normalize 把v1分类结构归一化为统一记录。单条数据异常跳过，不影响整批
func (a *Adapter) Normalize(payload *model.RawPayload) []*model.GameRecord {
	data, ok := payload.Data.(model.V1Response)
	if !ok {
		a.logger.Warn("v1原始数据类型错误，跳过整批")
		return nil
	}

	var records []*model.GameRecord
	for name, raw := range data {
		var category model.V1Category
		if err := json.Unmarshal(raw, &category); err != nil {
			a.logger.Warnf("分类%s结构异常，跳过: %v", name, err)
			continue
		}
		if category.Lists == nil {
			continue
		}

		for _, item := range category.Lists {
			if item.GameCode == "" {
				continue
			}
			baseID, resultDate, err := ParseGameCode(item.GameCode)
			if err != nil {
				a.logger.Warnf("GAME_CODE解析失败，跳过: %s: %v", item.GameCode, err)
				continue
			}

			// 三个结果位各自分类，整体状态按固定顺序（3UP、2DOWN、4UP）取优先级
			status3, value3 := ClassifyResult(item.Result3Up)
			status2, value2 := ClassifyResult(item.Result2Down)
			status4, value4 := ClassifyResult(item.Result4Up)

			records = append(records, &model.GameRecord{
				Source:       model.SourceV1,
				IdentityKey:  baseID,
				DisplayName:  item.GameName,
				ExternalCode: item.GameCode,
				ResultDate:   resultDate,
				Round:        0,
				Award1:       value3,
				Award2:       value2,
				Award3:       value4,
				Status:       overallStatus(status3, status2, status4),
			})
		}
	}

	return records
}

// ParseGameCode 拆解GAME_CODE，末段为8位日期，其余拼回业务主键。
// 例：L03-01-000500-20250622 -> ("L03-01-000500", 2025-06-22)
func ParseGameCode(gameCode string) (string, time.Time, error) {
	idx := strings.LastIndex(gameCode, "-")
	if idx <= 0 {
		return "", time.Time{}, fmt.Errorf("缺少日期段")
	}

	datePart := gameCode[idx+1:]
	baseID := gameCode[:idx]
	resultDate, err := time.ParseInLocation("20060102", datePart, time.UTC)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("日期段%s非法: %w", datePart, err)
	}
	return baseID, resultDate, nil
}

// ClassifyResult 按值分类单个结果位，返回状态和入库值（无效值入库为nil）
func ClassifyResult(value string) (string, *string) {
	if value == "" {
		return model.StatusNoResult, nil
	}
	switch value {
	case sentinelWaiting:
		return model.StatusWaiting, &value
	case sentinelCancelled:
		return model.StatusCancelled, &value
	}
	if isDigitsAndHyphens(value) {
		return model.StatusCompleted, &value
	}
	return model.StatusNoResult, nil
}

// isDigitsAndHyphens 仅含数字和连字符（且去掉连字符后非空）
func isDigitsAndHyphens(value string) bool {
	digits := 0
	for _, c := range value {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '-':
		default:
			return false
		}
	}
	return digits > 0
}

// overallStatus 整体状态：waiting/cancelled优先（按字段顺序取第一个），其次completed，否则no_result
func overallStatus(statuses ...string) string {
	for _, s := range statuses {
		if s == model.StatusWaiting || s == model.StatusCancelled {
			return s
		}
	}
	for _, s := range statuses {
		if s == model.StatusCompleted {
			return model.StatusCompleted
		}
	}
	return model.StatusNoResult
}
