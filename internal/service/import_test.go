package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/config"
	"github.com/mickthaweevit/number-watcher/internal/interfaces"
	"github.com/mickthaweevit/number-watcher/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/smartystreets/goconvey/convey"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeImportRepo 记录入库调用，可注入失败
type fakeImportRepo struct {
	applyErr error
	source   string
	batches  [][]*model.GameRecord
}

func (f *fakeImportRepo) ApplyBatch(ctx context.Context, source string, records []*model.GameRecord) (*interfaces.UpsertStats, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	f.source = source
	f.batches = append(f.batches, records)
	return &interfaces.UpsertStats{GamesCreated: 1, ResultsTouched: len(records)}, nil
}

// fakeLogRepo 记录审计日志的生命周期调用
type fakeLogRepo struct {
	nextID    uint64
	started   []string
	successes []uint64
	failures  map[uint64]string
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{failures: map[uint64]string{}}
}

func (f *fakeLogRepo) Start(ctx context.Context, sourceLabel, kind string) (*model.ImportLog, error) {
	f.nextID++
	f.started = append(f.started, sourceLabel)
	return &model.ImportLog{ID: f.nextID, SourceLabel: sourceLabel, Kind: kind, Status: model.LogStatusRunning}, nil
}

func (f *fakeLogRepo) FinishSuccess(ctx context.Context, logID uint64, stats *interfaces.UpsertStats, processed int, payloadSize *int64, details []byte) error {
	f.successes = append(f.successes, logID)
	return nil
}

func (f *fakeLogRepo) FinishFailed(ctx context.Context, logID uint64, errMsg string) error {
	f.failures[logID] = errMsg
	return nil
}

func testConfig(v1URL string) *config.Config {
	return &config.Config{
		Sync: config.SyncConfig{
			Workers:       1,
			RangeMaxDays:  30,
			RequestDelay:  time.Millisecond,
			ManualTimeout: time.Second,
			RangeTimeout:  time.Second,
		},
		Providers: map[string]config.ProviderConfig{
			model.SourceV1: {BaseURL: v1URL},
		},
	}
}

const v1Body = `{
	"หวยรัฐบาลไทย": {
		"lists": [
			{"GAME_CODE": "L03-01-000500-20250622", "GAME_NAME": "หวยรัฐบาลไทย", "RESULT_3UP": "111", "RESULT_2DOWN": "11", "RESULT_4UP": ""},
			{"GAME_CODE": "L03-01-000500-20250622", "GAME_NAME": "หวยรัฐบาลไทย", "RESULT_3UP": "500", "RESULT_2DOWN": "22", "RESULT_4UP": ""}
		]
	}
}`

func TestDedupRecords(t *testing.T) {
	convey.Convey("批内标识相同的记录，后出现的覆盖先出现的", t, func() {
		date := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)
		first := &model.GameRecord{Source: model.SourceV1, IdentityKey: "A", ResultDate: date, Round: 0, Status: model.StatusWaiting}
		second := &model.GameRecord{Source: model.SourceV1, IdentityKey: "A", ResultDate: date, Round: 0, Status: model.StatusCompleted}
		other := &model.GameRecord{Source: model.SourceV1, IdentityKey: "B", ResultDate: date, Round: 0, Status: model.StatusCompleted}

		unique := dedupRecords([]*model.GameRecord{first, second, other})
		convey.So(len(unique), convey.ShouldEqual, 2)

		byKey := map[string]*model.GameRecord{}
		for _, rec := range unique {
			byKey[rec.IdentityKey] = rec
		}
		convey.So(byKey["A"].Status, convey.ShouldEqual, model.StatusCompleted)

		convey.Convey("轮次不同视为不同记录", func() {
			r1 := &model.GameRecord{Source: model.SourceV2, IdentityKey: "A", ResultDate: date, Round: 1}
			r2 := &model.GameRecord{Source: model.SourceV2, IdentityKey: "A", ResultDate: date, Round: 2}
			convey.So(len(dedupRecords([]*model.GameRecord{r1, r2})), convey.ShouldEqual, 2)
		})

		convey.Convey("空输入返回空切片", func() {
			convey.So(dedupRecords(nil), convey.ShouldBeEmpty)
		})
	})
}

func TestRunForDate(t *testing.T) {
	date := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)

	convey.Convey("上游正常返回时完整跑通管线", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(v1Body))
		}))
		defer srv.Close()

		importRepo := &fakeImportRepo{}
		logRepo := newFakeLogRepo()
		svc := NewImportService(testLogger(), testConfig(srv.URL), importRepo, logRepo)

		outcome := svc.RunForDate(context.Background(), model.SourceV1, date, model.KindLive)

		convey.So(outcome.Success, convey.ShouldBeTrue)
		convey.So(outcome.TotalRecords, convey.ShouldEqual, 1) // 同标识两条去重为一条
		convey.So(importRepo.source, convey.ShouldEqual, model.SourceV1)
		convey.So(len(importRepo.batches), convey.ShouldEqual, 1)
		convey.So(*importRepo.batches[0][0].Award1, convey.ShouldEqual, "500")

		convey.So(logRepo.started, convey.ShouldResemble, []string{"api_v1_20250622"})
		convey.So(logRepo.successes, convey.ShouldResemble, []uint64{1})
		convey.So(logRepo.failures, convey.ShouldBeEmpty)
	})

	convey.Convey("上游报错时审计日志完结为失败", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		logRepo := newFakeLogRepo()
		svc := NewImportService(testLogger(), testConfig(srv.URL), &fakeImportRepo{}, logRepo)

		outcome := svc.RunForDate(context.Background(), model.SourceV1, date, model.KindLive)

		convey.So(outcome.Success, convey.ShouldBeFalse)
		convey.So(len(logRepo.started), convey.ShouldEqual, 1)
		convey.So(logRepo.successes, convey.ShouldBeEmpty)
		convey.So(logRepo.failures, convey.ShouldContainKey, uint64(1))
	})

	convey.Convey("入库失败同样完结为失败", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(v1Body))
		}))
		defer srv.Close()

		logRepo := newFakeLogRepo()
		importRepo := &fakeImportRepo{applyErr: fmt.Errorf("连接中断")}
		svc := NewImportService(testLogger(), testConfig(srv.URL), importRepo, logRepo)

		outcome := svc.RunForDate(context.Background(), model.SourceV1, date, model.KindLive)

		convey.So(outcome.Success, convey.ShouldBeFalse)
		convey.So(logRepo.failures[1], convey.ShouldContainSubstring, "连接中断")
	})

	convey.Convey("当日无有效数据视为成功", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		importRepo := &fakeImportRepo{}
		logRepo := newFakeLogRepo()
		svc := NewImportService(testLogger(), testConfig(srv.URL), importRepo, logRepo)

		outcome := svc.RunForDate(context.Background(), model.SourceV1, date, model.KindLive)

		convey.So(outcome.Success, convey.ShouldBeTrue)
		convey.So(outcome.TotalRecords, convey.ShouldEqual, 0)
		convey.So(importRepo.batches, convey.ShouldBeEmpty)
		convey.So(logRepo.successes, convey.ShouldResemble, []uint64{1})
	})

	convey.Convey("未知或未配置的上游在任何请求前被拒绝", t, func() {
		logRepo := newFakeLogRepo()
		svc := NewImportService(testLogger(), testConfig(""), &fakeImportRepo{}, logRepo)

		outcome := svc.RunForDate(context.Background(), "v9", date, model.KindLive)
		convey.So(outcome.Success, convey.ShouldBeFalse)

		outcome = svc.RunForDate(context.Background(), model.SourceV2, date, model.KindLive)
		convey.So(outcome.Success, convey.ShouldBeFalse)

		convey.So(logRepo.started, convey.ShouldBeEmpty)
	})
}

func TestRunDateRange(t *testing.T) {
	convey.Convey("给定区间导入请求", t, func() {
		convey.Convey("区间内逐日执行，单日失败不中断", func() {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if calls == 2 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				_, _ = w.Write([]byte(v1Body))
			}))
			defer srv.Close()

			logRepo := newFakeLogRepo()
			svc := NewImportService(testLogger(), testConfig(srv.URL), &fakeImportRepo{}, logRepo)

			start := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
			end := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)
			outcome := svc.RunDateRange(context.Background(), model.SourceV1, start, end)

			convey.So(outcome.TotalDates, convey.ShouldEqual, 3)
			convey.So(outcome.SuccessfulDates, convey.ShouldEqual, 2)
			convey.So(outcome.FailedDates, convey.ShouldEqual, 1)
			convey.So(calls, convey.ShouldEqual, 3)

			// 整个区间只有一条审计记录
			convey.So(logRepo.started, convey.ShouldResemble, []string{"api_v1_20250620-20250622"})
		})

		convey.Convey("超出天数上限时在任何请求前拒绝", func() {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
			}))
			defer srv.Close()

			logRepo := newFakeLogRepo()
			svc := NewImportService(testLogger(), testConfig(srv.URL), &fakeImportRepo{}, logRepo)

			start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 0, 30) // 31天
			outcome := svc.RunDateRange(context.Background(), model.SourceV1, start, end)

			convey.So(outcome.Success, convey.ShouldBeFalse)
			convey.So(calls, convey.ShouldEqual, 0)
			convey.So(logRepo.started, convey.ShouldBeEmpty)
		})

		convey.Convey("开始晚于结束同样拒绝", func() {
			logRepo := newFakeLogRepo()
			svc := NewImportService(testLogger(), testConfig("http://127.0.0.1:1"), &fakeImportRepo{}, logRepo)

			start := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)
			outcome := svc.RunDateRange(context.Background(), model.SourceV1, start, start.AddDate(0, 0, -1))

			convey.So(outcome.Success, convey.ShouldBeFalse)
			convey.So(logRepo.started, convey.ShouldBeEmpty)
		})
	})
}
