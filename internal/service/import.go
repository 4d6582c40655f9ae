package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/adapter/apiv1"
	"github.com/mickthaweevit/number-watcher/internal/adapter/apiv2"
	"github.com/mickthaweevit/number-watcher/internal/config"
	"github.com/mickthaweevit/number-watcher/internal/interfaces"
	"github.com/mickthaweevit/number-watcher/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImportOutcome 一次导入的结构化结果（对调度器和API层统一）
type ImportOutcome struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	GamesCreated   int    `json:"games_created"`
	ResultsTouched int    `json:"results_touched"`
	TotalRecords   int    `json:"total_records"`
}

type ImportService struct {
	logger     *logrus.Logger
	cfg        *config.Config
	importRepo interfaces.ImportRepository
	logRepo    interfaces.ImportLogRepository
	// 上游工厂：新增上游仅需添加此处
	providerFactory map[string]func(cfg *config.ProviderConfig, logger *logrus.Logger) interfaces.Provider
}

func NewImportService(logger *logrus.Logger, cfg *config.Config, importRepo interfaces.ImportRepository, logRepo interfaces.ImportLogRepository) *ImportService {
	return &ImportService{
		logger:     logger,
		cfg:        cfg,
		importRepo: importRepo,
		logRepo:    logRepo,
		providerFactory: map[string]func(cfg *config.ProviderConfig, logger *logrus.Logger) interfaces.Provider{
			model.SourceV1: apiv1.NewAdapter,
			model.SourceV2: apiv2.NewAdapter,
		},
	}
}

// buildProvider 按名称创建上游实例。未配置地址时直接报错（不碰网络和数据库）
func (s *ImportService) buildProvider(providerName string) (interfaces.Provider, error) {
	builder, ok := s.providerFactory[providerName]
	if !ok {
		return nil, fmt.Errorf("未支持的上游: %s", providerName)
	}
	providerCfg, ok := s.cfg.Providers[providerName]
	if !ok || providerCfg.BaseURL == "" {
		return nil, fmt.Errorf("上游%s地址未配置", providerName)
	}
	return builder(&providerCfg, s.logger), nil
}

// RunForDate 单日导入完整管线：拉取→归一化→去重→入库，整程包在审计日志内
func (s *ImportService) RunForDate(ctx context.Context, providerName string, date time.Time, kind string) ImportOutcome {
	provider, err := s.buildProvider(providerName)
	if err != nil {
		return ImportOutcome{Success: false, Message: err.Error()}
	}

	runID := uuid.NewString()
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "provider": providerName, "date": date.Format("2006-01-02")})

	sourceLabel := fmt.Sprintf("api_%s_%s", providerName, date.Format("20060102"))
	auditLog, err := s.logRepo.Start(ctx, sourceLabel, kind)
	if err != nil {
		log.WithError(err).Error("创建审计日志失败，导入中止")
		return ImportOutcome{Success: false, Message: fmt.Sprintf("创建审计日志失败: %v", err)}
	}

	outcome, payloadSize := s.runOnce(ctx, provider, date)

	if !outcome.Success {
		if err := s.logRepo.FinishFailed(ctx, auditLog.ID, outcome.Message); err != nil {
			log.WithError(err).Error("完结审计日志失败")
		}
		log.Errorf("导入失败: %s", outcome.Message)
		return outcome
	}

	stats := &interfaces.UpsertStats{GamesCreated: outcome.GamesCreated, ResultsTouched: outcome.ResultsTouched}
	if err := s.logRepo.FinishSuccess(ctx, auditLog.ID, stats, outcome.TotalRecords, payloadSize, nil); err != nil {
		log.WithError(err).Error("完结审计日志失败")
		return ImportOutcome{Success: false, Message: fmt.Sprintf("完结审计日志失败: %v", err)}
	}

	log.Infof("导入完成: %s", outcome.Message)
	return outcome
}

// runOnce 不带审计的单日管线，单日/区间/定时共用
func (s *ImportService) runOnce(ctx context.Context, provider interfaces.Provider, date time.Time) (ImportOutcome, *int64) {
	payload, err := provider.Fetch(ctx, date)
	if err != nil {
		return ImportOutcome{Success: false, Message: fmt.Sprintf("拉取上游数据失败: %v", err)}, nil
	}

	records := provider.Normalize(payload)
	unique := dedupRecords(records)
	if len(unique) == 0 {
		return ImportOutcome{
			Success: true,
			Message: fmt.Sprintf("%s当日无有效数据", date.Format("2006-01-02")),
		}, &payload.Size
	}

	stats, err := s.importRepo.ApplyBatch(ctx, provider.GetName(), unique)
	if err != nil {
		return ImportOutcome{Success: false, Message: fmt.Sprintf("入库失败: %v", err)}, &payload.Size
	}

	return ImportOutcome{
		Success:        true,
		Message:        fmt.Sprintf("成功处理%d条记录，新建游戏%d，写入结果%d", len(unique), stats.GamesCreated, stats.ResultsTouched),
		GamesCreated:   stats.GamesCreated,
		ResultsTouched: stats.ResultsTouched,
		TotalRecords:   len(unique),
	}, &payload.Size
}

// dedupRecords 批内去重：标识相同（业务主键+日期+轮次）时后出现的覆盖先出现的
func dedupRecords(records []*model.GameRecord) []*model.GameRecord {
	if len(records) == 0 {
		return []*model.GameRecord{}
	}

	recordMap := make(map[string]*model.GameRecord, len(records))
	for _, rec := range records {
		recordMap[rec.IdentityOf()] = rec
	}

	unique := make([]*model.GameRecord, 0, len(recordMap))
	for _, rec := range recordMap {
		unique = append(unique, rec)
	}
	return unique
}

// ConfiguredProviders 已配置地址的上游名称列表（固定顺序v1、v2）
func (s *ImportService) ConfiguredProviders() []string {
	var names []string
	for _, name := range []string{model.SourceV1, model.SourceV2} {
		if p, ok := s.cfg.Providers[name]; ok && p.BaseURL != "" {
			names = append(names, name)
		}
	}
	return names
}
