package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/interfaces"
	"github.com/mickthaweevit/number-watcher/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImportLogRepository struct {
	db *gorm.DB
}

func NewImportLogRepository(db *gorm.DB) interfaces.ImportLogRepository {
	return &ImportLogRepository{db: db}
}

// Start 落一条running状态的审计记录并立即提交。
// 必须在拉数之前持久化，进程中途挂掉时能看到卡在running的记录
func (r *ImportLogRepository) Start(ctx context.Context, sourceLabel, kind string) (*model.ImportLog, error) {
	log := &model.ImportLog{
		SourceLabel: sourceLabel,
		Kind:        kind,
		StartedAt:   time.Now(),
		Status:      model.LogStatusRunning,
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, fmt.Errorf("创建导入日志失败: %w", err)
	}
	return log, nil
}

// FinishSuccess 完结为success并回填统计。只允许从running完结一次
func (r *ImportLogRepository) FinishSuccess(ctx context.Context, logID uint64, stats *interfaces.UpsertStats, processed int, payloadSize *int64, details []byte) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":            model.LogStatusSuccess,
		"completed_at":      &now,
		"records_processed": processed,
	}
	if stats != nil {
		updates["games_created"] = stats.GamesCreated
		updates["results_touched"] = stats.ResultsTouched
	}
	if payloadSize != nil {
		updates["payload_size"] = payloadSize
	}
	if details != nil {
		updates["details"] = datatypes.JSON(details)
	}
	return r.finalize(ctx, logID, updates)
}

// FinishFailed 完结为failed并记录失败原因。域事务已回滚，审计记录照常提交
func (r *ImportLogRepository) FinishFailed(ctx context.Context, logID uint64, errMsg string) error {
	now := time.Now()
	return r.finalize(ctx, logID, map[string]interface{}{
		"status":        model.LogStatusFailed,
		"completed_at":  &now,
		"error_message": &errMsg,
	})
}

func (r *ImportLogRepository) finalize(ctx context.Context, logID uint64, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.ImportLog{}).
		Where("id = ? AND status = ?", logID, model.LogStatusRunning).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("完结导入日志失败: %w, log_id: %d", res.Error, logID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("导入日志%d不存在或已完结", logID)
	}
	return nil
}
