package model

import (
	"time"

	"gorm.io/datatypes"
)

// Game 游戏主档（每个上游游戏/产品一条）
type Game struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Source      string    `gorm:"column:source;type:varchar(8);not null;uniqueIndex:uk_source_external;comment:数据来源：v1/v2" json:"source"`
	ExternalID  string    `gorm:"column:external_id;type:varchar(64);not null;uniqueIndex:uk_source_external;comment:上游业务主键" json:"external_id"`
	DisplayName string    `gorm:"column:display_name;type:varchar(200);not null;comment:游戏名称" json:"display_name"`
	IsActive    bool      `gorm:"column:is_active;type:boolean;default:true;comment:是否展示" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamp;default:CURRENT_TIMESTAMP;comment:创建时间" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamp;default:CURRENT_TIMESTAMP;comment:更新时间" json:"updated_at"`
}

// Result 开奖结果（同一游戏+日期+轮次唯一，重复导入原地覆盖）
type Result struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	GameID       uint64    `gorm:"column:game_id;type:bigint;not null;uniqueIndex:uk_game_date_round;comment:关联游戏ID" json:"game_id"`
	ExternalCode string    `gorm:"column:external_code;type:varchar(100);comment:上游原始编码" json:"external_code"`
	ResultDate   time.Time `gorm:"column:result_date;type:date;not null;uniqueIndex:uk_game_date_round;comment:开奖日期" json:"result_date"`
	Round        int       `gorm:"column:round;type:int;not null;default:0;uniqueIndex:uk_game_date_round;comment:轮次（v2的ykRound）" json:"round"`
	Award1       *string   `gorm:"column:award1;type:varchar(100);comment:奖项1" json:"award1"`
	Award2       *string   `gorm:"column:award2;type:varchar(100);comment:奖项2" json:"award2"`
	Award3       *string   `gorm:"column:award3;type:varchar(100);comment:奖项3" json:"award3"`
	Award4       *string   `gorm:"column:award4;type:varchar(100);comment:奖项4" json:"award4"`
	Status       string    `gorm:"column:status;type:varchar(20);default:completed;comment:状态：completed/waiting/cancelled/no_result" json:"status"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;default:CURRENT_TIMESTAMP;comment:创建时间" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamp;default:CURRENT_TIMESTAMP;comment:更新时间" json:"updated_at"`
}

// ImportLog 导入审计日志（只追加，完结后不再修改）
type ImportLog struct {
	ID               uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	SourceLabel      string         `gorm:"column:source_label;type:varchar(255);comment:来源标识，如 api_v2_20250625" json:"source_label"`
	Kind             string         `gorm:"column:kind;type:varchar(20);not null;comment:导入类型：sample/live/live_range" json:"kind"`
	StartedAt        time.Time      `gorm:"column:started_at;type:timestamp;default:CURRENT_TIMESTAMP;comment:开始时间" json:"started_at"`
	CompletedAt      *time.Time     `gorm:"column:completed_at;type:timestamp;comment:结束时间（运行中为空）" json:"completed_at"`
	Status           string         `gorm:"column:status;type:varchar(20);default:running;comment:状态：running/success/failed" json:"status"`
	RecordsProcessed int            `gorm:"column:records_processed;type:int;default:0;comment:处理记录数" json:"records_processed"`
	GamesCreated     int            `gorm:"column:games_created;type:int;default:0;comment:新建游戏数" json:"games_created"`
	ResultsTouched   int            `gorm:"column:results_touched;type:int;default:0;comment:写入结果数" json:"results_touched"`
	ErrorMessage     *string        `gorm:"column:error_message;type:text;comment:失败原因" json:"error_message"`
	PayloadSize      *int64         `gorm:"column:payload_size;type:bigint;comment:上游响应字节数" json:"payload_size"`
	Details          datatypes.JSON `gorm:"column:details;type:jsonb;comment:区间导入的逐日明细" json:"details"`
}

func (Game) TableName() string      { return "games" }
func (Result) TableName() string    { return "results" }
func (ImportLog) TableName() string { return "import_logs" }
