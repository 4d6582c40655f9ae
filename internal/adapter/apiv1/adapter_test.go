package apiv1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/adapter/apiv1"
	"github.com/mickthaweevit/number-watcher/internal/config"
	"github.com/mickthaweevit/number-watcher/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/smartystreets/goconvey/convey"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestParseGameCode(t *testing.T) {
	convey.Convey("给定带日期后缀的GAME_CODE", t, func() {
		convey.Convey("多段编码应拆出业务主键和日期", func() {
			baseID, date, err := apiv1.ParseGameCode("L03-01-000500-20250622")
			convey.So(err, convey.ShouldBeNil)
			convey.So(baseID, convey.ShouldEqual, "L03-01-000500")
			convey.So(date.Format("2006-01-02"), convey.ShouldEqual, "2025-06-22")
		})

		convey.Convey("仅两段的编码同样适用", func() {
			baseID, date, err := apiv1.ParseGameCode("GLO-20241231")
			convey.So(err, convey.ShouldBeNil)
			convey.So(baseID, convey.ShouldEqual, "GLO")
			convey.So(date.Format("2006-01-02"), convey.ShouldEqual, "2024-12-31")
		})

		convey.Convey("无日期段或日期非法时报错", func() {
			_, _, err := apiv1.ParseGameCode("NODATE")
			convey.So(err, convey.ShouldNotBeNil)

			_, _, err = apiv1.ParseGameCode("L03-2025062X")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestClassifyResult(t *testing.T) {
	convey.Convey("给定单个结果位的原始值", t, func() {
		convey.Convey("纯数字视为已开奖", func() {
			status, value := apiv1.ClassifyResult("500")
			convey.So(status, convey.ShouldEqual, model.StatusCompleted)
			convey.So(*value, convey.ShouldEqual, "500")
		})

		convey.Convey("数字加连字符同样视为已开奖", func() {
			status, value := apiv1.ClassifyResult("12-34")
			convey.So(status, convey.ShouldEqual, model.StatusCompleted)
			convey.So(*value, convey.ShouldEqual, "12-34")
		})

		convey.Convey("等待哨兵值映射为waiting", func() {
			status, _ := apiv1.ClassifyResult("รอผล")
			convey.So(status, convey.ShouldEqual, model.StatusWaiting)
		})

		convey.Convey("取消哨兵值映射为cancelled", func() {
			status, _ := apiv1.ClassifyResult("ยกเลิก")
			convey.So(status, convey.ShouldEqual, model.StatusCancelled)
		})

		convey.Convey("空串和无法识别的值均为no_result且不入库", func() {
			status, value := apiv1.ClassifyResult("")
			convey.So(status, convey.ShouldEqual, model.StatusNoResult)
			convey.So(value, convey.ShouldBeNil)

			status, value = apiv1.ClassifyResult("abc")
			convey.So(status, convey.ShouldEqual, model.StatusNoResult)
			convey.So(value, convey.ShouldBeNil)

			status, value = apiv1.ClassifyResult("---")
			convey.So(status, convey.ShouldEqual, model.StatusNoResult)
			convey.So(value, convey.ShouldBeNil)
		})
	})
}

func TestNormalizeV1(t *testing.T) {
	adapter := apiv1.NewAdapter(&config.ProviderConfig{}, testLogger())

	convey.Convey("给定v1分类结构的原始数据", t, func() {
		raw := []byte(`{
			"หวยรัฐบาลไทย": {
				"dateGame": "2025-06-22",
				"lists": [
					{"GAME_CODE": "L03-01-000500-20250622", "GAME_NAME": "หวยรัฐบาลไทย", "RESULT_3UP": "500", "RESULT_2DOWN": "22", "RESULT_4UP": "1500"},
					{"GAME_CODE": "L04-01-000500-20250622", "GAME_NAME": "หวยลาว", "RESULT_3UP": "รอผล", "RESULT_2DOWN": "รอผล", "RESULT_4UP": ""},
					{"GAME_CODE": "", "GAME_NAME": "无编码跳过", "RESULT_3UP": "1", "RESULT_2DOWN": "2", "RESULT_4UP": "3"}
				]
			},
			"坏分类": "not-an-object",
			"无列表": {"dateGame": "2025-06-22"}
		}`)

		var data model.V1Response
		convey.So(json.Unmarshal(raw, &data), convey.ShouldBeNil)

		records := adapter.Normalize(&model.RawPayload{Source: model.SourceV1, Size: int64(len(raw)), Data: data})

		convey.Convey("坏分类、缺列表和空编码被跳过，其余按字段归一化", func() {
			convey.So(len(records), convey.ShouldEqual, 2)

			byKey := map[string]*model.GameRecord{}
			for _, rec := range records {
				byKey[rec.IdentityKey] = rec
			}

			full := byKey["L03-01-000500"]
			convey.So(full, convey.ShouldNotBeNil)
			convey.So(full.Source, convey.ShouldEqual, model.SourceV1)
			convey.So(full.ExternalCode, convey.ShouldEqual, "L03-01-000500-20250622")
			convey.So(full.ResultDate.Format("2006-01-02"), convey.ShouldEqual, "2025-06-22")
			convey.So(full.Round, convey.ShouldEqual, 0)
			convey.So(*full.Award1, convey.ShouldEqual, "500")
			convey.So(*full.Award2, convey.ShouldEqual, "22")
			convey.So(*full.Award3, convey.ShouldEqual, "1500")
			convey.So(full.Status, convey.ShouldEqual, model.StatusCompleted)

			waiting := byKey["L04-01-000500"]
			convey.So(waiting, convey.ShouldNotBeNil)
			convey.So(waiting.Status, convey.ShouldEqual, model.StatusWaiting)
		})
	})

	convey.Convey("整体状态按waiting、cancelled优先", t, func() {
		raw := []byte(`{
			"混合": {
				"dateGame": "2025-06-22",
				"lists": [
					{"GAME_CODE": "A-20250622", "GAME_NAME": "部分取消", "RESULT_3UP": "123", "RESULT_2DOWN": "ยกเลิก", "RESULT_4UP": "456"}
				]
			}
		}`)
		var data model.V1Response
		convey.So(json.Unmarshal(raw, &data), convey.ShouldBeNil)

		records := adapter.Normalize(&model.RawPayload{Source: model.SourceV1, Size: int64(len(raw)), Data: data})
		convey.So(len(records), convey.ShouldEqual, 1)
		convey.So(records[0].Status, convey.ShouldEqual, model.StatusCancelled)
	})
}

func TestFetchV1(t *testing.T) {
	convey.Convey("给定返回正常数据的v1上游", t, func() {
		var gotDate string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotDate = r.URL.Query().Get("dateCurrent")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"หวยรัฐบาลไทย": {"dateGame": "2025-06-22", "lists": []}}`))
		}))
		defer srv.Close()

		adapter := apiv1.NewAdapter(&config.ProviderConfig{BaseURL: srv.URL}, testLogger())

		convey.Convey("请求日期应后移到前一天17:00(UTC)", func() {
			date := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)
			payload, err := adapter.Fetch(context.Background(), date)
			convey.So(err, convey.ShouldBeNil)
			convey.So(gotDate, convey.ShouldEqual, "2025-06-21T17:00:00.000Z")
			convey.So(payload.Source, convey.ShouldEqual, model.SourceV1)
			convey.So(payload.Size, convey.ShouldBeGreaterThan, 0)
		})
	})

	convey.Convey("上游返回非200时报错", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		adapter := apiv1.NewAdapter(&config.ProviderConfig{BaseURL: srv.URL}, testLogger())
		_, err := adapter.Fetch(context.Background(), time.Now())
		convey.So(err, convey.ShouldNotBeNil)
	})
}
