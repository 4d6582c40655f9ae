package repository

import (
	"context"
	"fmt"

	"github.com/mickthaweevit/number-watcher/internal/model"

	"gorm.io/gorm"
)

// QueryRepository 只读查询（给前端列表接口用），写入全部走ImportRepository
type QueryRepository struct {
	db *gorm.DB
}

func NewQueryRepository(db *gorm.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// GameFilter 游戏列表过滤条件
type GameFilter struct {
	Source     string // v1/v2，空为全部
	OnlyActive bool
}

// ResultWithGame 结果+所属游戏信息（联表返回）
type ResultWithGame struct {
	model.Result
	GameExternalID  string `json:"game_external_id"`
	GameDisplayName string `json:"game_display_name"`
	GameSource      string `json:"game_source"`
}

// ListGames 游戏列表
func (r *QueryRepository) ListGames(ctx context.Context, filter GameFilter) ([]model.Game, error) {
	q := r.db.WithContext(ctx).Model(&model.Game{})
	if filter.Source != "" {
		q = q.Where("source = ?", filter.Source)
	}
	if filter.OnlyActive {
		q = q.Where("is_active = ?", true)
	}

	var games []model.Game
	if err := q.Order("id ASC").Find(&games).Error; err != nil {
		return nil, fmt.Errorf("查询游戏列表失败: %w", err)
	}
	return games, nil
}

// ListResults 结果列表（带游戏信息），按日期倒序分页
func (r *QueryRepository) ListResults(ctx context.Context, source string, page, pageSize int) ([]ResultWithGame, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Result{}).
		Joins("JOIN games ON games.id = results.game_id")
	if source != "" {
		q = q.Where("games.source = ?", source)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计结果数失败: %w", err)
	}

	var rows []ResultWithGame
	if err := q.Select("results.*, games.external_id AS game_external_id, games.display_name AS game_display_name, games.source AS game_source").
		Order("results.result_date DESC, results.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("查询结果列表失败: %w", err)
	}
	return rows, total, nil
}

// ListImportLogs 审计日志列表，按开始时间倒序
func (r *QueryRepository) ListImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var logs []model.ImportLog
	if err := r.db.WithContext(ctx).
		Order("started_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("查询导入日志失败: %w", err)
	}
	return logs, nil
}
