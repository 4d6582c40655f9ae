package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mickthaweevit/number-watcher/internal/adapter/apiv1"
	"github.com/mickthaweevit/number-watcher/internal/config"
	"github.com/mickthaweevit/number-watcher/internal/interfaces"
	"github.com/mickthaweevit/number-watcher/internal/model"
)

// RunSampleImport 从本地样例文件导入（v1响应格式），联调和演示环境用。
// 走与线上导入相同的归一化/去重/入库路径，审计类型记为sample
func (s *ImportService) RunSampleImport(ctx context.Context) ImportOutcome {
	path := s.cfg.Sync.SampleFile
	if path == "" {
		return ImportOutcome{Success: false, Message: "样例文件路径未配置"}
	}

	auditLog, err := s.logRepo.Start(ctx, filepath.Base(path), model.KindSample)
	if err != nil {
		return ImportOutcome{Success: false, Message: fmt.Sprintf("创建审计日志失败: %v", err)}
	}

	outcome, payloadSize := s.importSampleFile(ctx, path)

	if !outcome.Success {
		if err := s.logRepo.FinishFailed(ctx, auditLog.ID, outcome.Message); err != nil {
			s.logger.WithError(err).Error("完结审计日志失败")
		}
		return outcome
	}

	stats := &interfaces.UpsertStats{GamesCreated: outcome.GamesCreated, ResultsTouched: outcome.ResultsTouched}
	if err := s.logRepo.FinishSuccess(ctx, auditLog.ID, stats, outcome.TotalRecords, payloadSize, nil); err != nil {
		s.logger.WithError(err).Error("完结审计日志失败")
		return ImportOutcome{Success: false, Message: fmt.Sprintf("完结审计日志失败: %v", err)}
	}
	return outcome
}

func (s *ImportService) importSampleFile(ctx context.Context, path string) (ImportOutcome, *int64) {
	body, err := os.ReadFile(path)
	if err != nil {
		return ImportOutcome{Success: false, Message: fmt.Sprintf("读取样例文件失败: %v", err)}, nil
	}
	size := int64(len(body))

	var data model.V1Response
	if err := json.Unmarshal(body, &data); err != nil {
		return ImportOutcome{Success: false, Message: fmt.Sprintf("解析样例文件失败: %v", err)}, &size
	}

	// 样例文件不走网络，归一化器直接用v1适配器的
	provider := apiv1.NewAdapter(&config.ProviderConfig{}, s.logger)
	records := provider.Normalize(&model.RawPayload{Source: model.SourceV1, Size: size, Data: data})
	unique := dedupRecords(records)
	if len(unique) == 0 {
		return ImportOutcome{Success: true, Message: "样例文件无有效数据"}, &size
	}

	stats, err := s.importRepo.ApplyBatch(ctx, model.SourceV1, unique)
	if err != nil {
		return ImportOutcome{Success: false, Message: fmt.Sprintf("入库失败: %v", err)}, &size
	}

	return ImportOutcome{
		Success:        true,
		Message:        fmt.Sprintf("样例导入完成: 处理%d条记录，新建游戏%d，写入结果%d", len(unique), stats.GamesCreated, stats.ResultsTouched),
		GamesCreated:   stats.GamesCreated,
		ResultsTouched: stats.ResultsTouched,
		TotalRecords:   len(unique),
	}, &size
}
