package model

import "encoding/json"

// V1Category v1接口返回的单个分类（settrade/settradeInt/set等）
type V1Category struct {
	DateGame string       `json:"DATE_GAME"`
	Lists    []V1GameItem `json:"lists"`
}

// V1GameItem v1接口的单条开奖数据
type V1GameItem struct {
	GameCode    string `json:"GAME_CODE"` // 如 L03-01-000500-20250622
	GameName    string `json:"GAME_NAME"`
	Result3Up   string `json:"RESULT_3UP"`
	Result2Down string `json:"RESULT_2DOWN"`
	Result4Up   string `json:"RESULT_4UP"`
}

// V1Response v1接口顶层结构：分类名 -> 分类数据。
// 分类的值不一定是对象（上游偶尔混入字符串字段），保留原始JSON由归一化层逐个解析
type V1Response map[string]json.RawMessage

// V2Response v2接口顶层结构
type V2Response struct {
	Success bool         `json:"success"`
	Info    []V2InfoItem `json:"info"`
}

// V2InfoItem v2接口的单条产品开奖数据
type V2InfoItem struct {
	ProductID     int64  `json:"productId"`
	ProductNameTh string `json:"productNameTh"`
	ProductCode   string `json:"productCode"`
	PeriodID      int64  `json:"periodId"`
	PeriodName    string `json:"periodName"` // 如 "วันจันทร์ 16/06/68"，日期嵌在其中
	Award1        string `json:"award1"`
	Award2        string `json:"award2"`
	Award3        string `json:"award3"`
	Award4        string `json:"award4"`
	YkRound       int    `json:"ykRound"`
	YkDate        string `json:"ykDate"`
}
