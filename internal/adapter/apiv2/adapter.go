package apiv2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/config"
	"github.com/mickthaweevit/number-watcher/internal/interfaces"
	"github.com/mickthaweevit/number-watcher/internal/model"
	"github.com/mickthaweevit/number-watcher/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// 被排除的产品编码（旧聚合类目，不入库）
var excludedProductCodes = map[string]bool{
	"YK":  true,
	"YK5": true,
	"TH":  true,
}

// periodName中嵌的日期，格式 DD/MM/YY（泰历两位年）
var periodDatePattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{2})`)

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
	return model.SourceV2
}

// Fetch 拉取指定日期的开奖数据，路径按 /info/getResult/YYYYMMDD
func (a *Adapter) Fetch(ctx context.Context, date time.Time) (*model.RawPayload, error) {
	if a.cfg.BaseURL == "" {
		return nil, fmt.Errorf("v2上游地址未配置")
	}

	url := fmt.Sprintf("%s/info/getResult/%s", strings.TrimSuffix(a.cfg.BaseURL, "/"), date.Format("20060102"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建v2请求失败: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求v2接口失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭v2响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("v2接口返回状态码%d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取v2响应失败: %w", err)
	}

	var data model.V2Response
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("解析v2响应失败: %w", err)
	}

	a.logger.Infof("成功获取v2数据，info条数%d，响应%d字节", len(data.Info), len(body))
	return &model.RawPayload{
		Source: model.SourceV2,
		Size:   int64(len(body)),
		Data:   data,
	}, nil
}

// Normalize 把v2的info列表归一化为统一记录。
// success为false或info为空时整批为空（不算错误）；单条异常跳过
func (a *Adapter) Normalize(payload *model.RawPayload) []*model.GameRecord {
	data, ok := payload.Data.(model.V2Response)
	if !ok {
		a.logger.Warn("v2原始数据类型错误，跳过整批")
		return nil
	}
	if !data.Success || len(data.Info) == 0 {
		return nil
	}

	var records []*model.GameRecord
	for _, item := range data.Info {
		if excludedProductCodes[item.ProductCode] {
			continue
		}

		resultDate, ok := ParsePeriodDate(item.PeriodName)
		if !ok {
			a.logger.Warnf("periodName中无日期，跳过: %s", item.PeriodName)
			continue
		}

		award1 := CleanAward(item.Award1)
		award2 := CleanAward(item.Award2)
		award3 := CleanAward(item.Award3)
		award4 := CleanAward(item.Award4)

		// 前三个奖项全空视为无效数据，整条丢弃
		if award1 == nil && award2 == nil && award3 == nil {
			continue
		}

		records = append(records, &model.GameRecord{
			Source:       model.SourceV2,
			IdentityKey:  strconv.FormatInt(item.ProductID, 10),
			DisplayName:  item.ProductNameTh,
			ExternalCode: strconv.FormatInt(item.PeriodID, 10),
			ResultDate:   resultDate,
			Round:        item.YkRound,
			Award1:       award1,
			Award2:       award2,
			Award3:       award3,
			Award4:       award4,
			Status:       model.StatusCompleted,
		})
	}

	return records
}

// ParsePeriodDate 从periodName任意位置提取 DD/MM/YY 并转公历日期。
// 两位年按佛历换算：>=50补成25xx，否则26xx，再减543得公历年（68 -> 2568 -> 2025）。
// TODO: 两位年阈值(50)与换算常数需对照真实上游数据与供应商核对，边界年份会偏移一个世纪
func ParsePeriodDate(periodName string) (time.Time, bool) {
	m := periodDatePattern.FindStringSubmatch(periodName)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, false
	}

	buddhistYear := year + 2600
	if year >= 50 {
		buddhistYear = year + 2500
	}
	gregorianYear := buddhistYear - 543

	d := time.Date(gregorianYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date会把 31/04 这类不存在的日期滚到下月，滚动过的视为无日期
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}

// CleanAward 清洗奖项值：去空白；空串、xx、xxx（不分大小写）以及任何含xxx的值视为无值
func CleanAward(value string) *string {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)
	if trimmed == "" || lower == "xxx" || lower == "xx" {
		return nil
	}
	if strings.Contains(lower, "xxx") {
		return nil
	}
	return &trimmed
}
