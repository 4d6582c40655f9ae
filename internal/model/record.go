package model

import (
	"strconv"
	"time"
)

// 导入来源
const (
	SourceV1 = "v1"
	SourceV2 = "v2"
)

// 结果状态枚举
const (
	StatusCompleted = "completed"
	StatusWaiting   = "waiting"
	StatusCancelled = "cancelled"
	StatusNoResult  = "no_result"
)

// 导入类型枚举
const (
	KindSample    = "sample"
	KindLive      = "live"
	KindLiveRange = "live_range"
)

// 审计日志状态枚举
const (
	LogStatusRunning = "running"
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// GameRecord 归一化后的开奖记录（内存中转，不落库）
type GameRecord struct {
	Source       string     // 数据来源：v1/v2
	IdentityKey  string     // 业务主键（v1为GAME_CODE去日期，v2为productId）
	DisplayName  string     // 游戏名称
	ExternalCode string     // 上游原始编码（v1完整GAME_CODE，v2为periodId）
	ResultDate   time.Time  // 开奖日期
	Round        int        // 轮次（仅v2使用，默认0）
	Award1       *string    // 奖项1（v1=RESULT_3UP，v2=award1）
	Award2       *string    // 奖项2（v1=RESULT_2DOWN，v2=award2）
	Award3       *string    // 奖项3（v1=RESULT_4UP，v2=award3）
	Award4       *string    // 奖项4（仅v2使用）
	Status       string     // 整体状态
}

// IdentityOf 去重用的完整标识：业务主键+日期+轮次
func (r *GameRecord) IdentityOf() string {
	return r.IdentityKey + "_" + r.ResultDate.Format("2006-01-02") + "_" + strconv.Itoa(r.Round)
}

// RawPayload 上游原始响应的通用包装
type RawPayload struct {
	Source string // 来源：v1/v2
	Size   int64  // 响应字节数（写入ImportLog.PayloadSize）
	Data   any    // 原生数据（V1Response/V2Response）
}
