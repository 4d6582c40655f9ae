package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/interfaces"
	"github.com/mickthaweevit/number-watcher/internal/model"

	"gorm.io/gorm"
)

type ImportRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) interfaces.ImportRepository {
	return &ImportRepository{db: db}
}

// ApplyBatch 批量入库（所有上游共用），整批在一个事务内，任一步失败全部回滚。
// 逐条按输入顺序处理：先按(source, external_id)找游戏（无则新建），
// 再按(game_id, result_date, round)找结果（有则原地覆盖，无则新建）
func (r *ImportRepository) ApplyBatch(ctx context.Context, source string, records []*model.GameRecord) (*interfaces.UpsertStats, error) {
	stats := &interfaces.UpsertStats{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			game, created, err := r.findOrCreateGame(tx, source, rec)
			if err != nil {
				return err
			}
			if created {
				stats.GamesCreated++
			}

			if err := r.upsertResult(tx, game.ID, rec); err != nil {
				return err
			}
			stats.ResultsTouched++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// findOrCreateGame 按业务主键查游戏，首次出现则新建；名称变化时同步更新
func (r *ImportRepository) findOrCreateGame(tx *gorm.DB, source string, rec *model.GameRecord) (*model.Game, bool, error) {
	var game model.Game
	err := tx.Where("source = ? AND external_id = ?", source, rec.IdentityKey).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		game = model.Game{
			Source:      source,
			ExternalID:  rec.IdentityKey,
			DisplayName: rec.DisplayName,
			IsActive:    true,
		}
		if err := tx.Create(&game).Error; err != nil {
			return nil, false, fmt.Errorf("新建游戏失败: %w, external_id: %s", err, rec.IdentityKey)
		}
		return &game, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("查询游戏失败: %w, external_id: %s", err, rec.IdentityKey)
	}

	// 展示名变化视为元数据更新，顺带推进updated_at
	if rec.DisplayName != "" && rec.DisplayName != game.DisplayName {
		if err := tx.Model(&game).Updates(map[string]interface{}{
			"display_name": rec.DisplayName,
			"updated_at":   time.Now(),
		}).Error; err != nil {
			return nil, false, fmt.Errorf("更新游戏名称失败: %w, external_id: %s", err, rec.IdentityKey)
		}
	}
	return &game, false, nil
}

// upsertResult 结果表按(game_id, result_date, round)唯一，存在即覆盖奖项/状态/编码
func (r *ImportRepository) upsertResult(tx *gorm.DB, gameID uint64, rec *model.GameRecord) error {
	var existing model.Result
	err := tx.Where("game_id = ? AND result_date = ? AND round = ?", gameID, rec.ResultDate, rec.Round).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		newResult := model.Result{
			GameID:       gameID,
			ExternalCode: rec.ExternalCode,
			ResultDate:   rec.ResultDate,
			Round:        rec.Round,
			Award1:       rec.Award1,
			Award2:       rec.Award2,
			Award3:       rec.Award3,
			Award4:       rec.Award4,
			Status:       rec.Status,
		}
		if err := tx.Create(&newResult).Error; err != nil {
			return fmt.Errorf("新建结果失败: %w, game_id: %d, date: %s", err, gameID, rec.ResultDate.Format("2006-01-02"))
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询结果失败: %w, game_id: %d", err, gameID)
	}

	if err := tx.Model(&existing).Updates(map[string]interface{}{
		"external_code": rec.ExternalCode,
		"award1":        rec.Award1,
		"award2":        rec.Award2,
		"award3":        rec.Award3,
		"award4":        rec.Award4,
		"status":        rec.Status,
		"updated_at":    time.Now(),
	}).Error; err != nil {
		return fmt.Errorf("覆盖结果失败: %w, result_id: %d", err, existing.ID)
	}
	return nil
}
