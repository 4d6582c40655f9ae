package interfaces

import (
	"context"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/model"
)

// Provider 所有上游必须实现的核心接口。
// 日期偏移规则（v1按前一天17点取数）由各实现自行处理，调用方只传业务日期
type Provider interface {
	GetName() string                                                      // 上游名称：v1/v2
	Fetch(ctx context.Context, date time.Time) (*model.RawPayload, error) // 拉取指定日期的原始数据，传输失败返回error
	Normalize(payload *model.RawPayload) []*model.GameRecord              // 归一化为统一记录，坏条目跳过不报错
}

// ImportRepository 批量入库接口（事务内执行）
type ImportRepository interface {
	ApplyBatch(ctx context.Context, source string, records []*model.GameRecord) (*UpsertStats, error)
}

// UpsertStats 一次入库的统计结果
type UpsertStats struct {
	GamesCreated   int // 新建游戏数
	ResultsTouched int // 新建或覆盖的结果数
}

// ImportLogRepository 审计日志接口：先落运行中记录，结束时恰好完结一次
type ImportLogRepository interface {
	Start(ctx context.Context, sourceLabel, kind string) (*model.ImportLog, error)
	FinishSuccess(ctx context.Context, logID uint64, stats *UpsertStats, processed int, payloadSize *int64, details []byte) error
	FinishFailed(ctx context.Context, logID uint64, errMsg string) error
}
