package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/interfaces"
	"github.com/mickthaweevit/number-watcher/internal/model"
)

// DateOutcome 区间导入中单日的结果
type DateOutcome struct {
	Date    string        `json:"date"`
	Outcome ImportOutcome `json:"outcome"`
}

// RangeOutcome 区间导入的汇总结果
type RangeOutcome struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	TotalDates      int           `json:"total_dates"`
	SuccessfulDates int           `json:"successful_dates"`
	FailedDates     int           `json:"failed_dates"`
	GamesCreated    int           `json:"games_created"`
	ResultsTouched  int           `json:"results_touched"`
	Details         []DateOutcome `json:"details"`
}

// RunDateRange 闭区间逐日导入。校验在任何网络请求之前完成；
// 单日失败不中断后续日期；整个区间共用一条live_range审计记录，逐日明细存details
func (s *ImportService) RunDateRange(ctx context.Context, providerName string, start, end time.Time) RangeOutcome {
	provider, err := s.buildProvider(providerName)
	if err != nil {
		return RangeOutcome{Success: false, Message: err.Error()}
	}

	start = truncateToDay(start)
	end = truncateToDay(end)
	if start.After(end) {
		return RangeOutcome{Success: false, Message: "开始日期不能晚于结束日期"}
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > s.cfg.Sync.RangeMaxDays {
		return RangeOutcome{Success: false, Message: fmt.Sprintf("日期区间过大，最多允许%d天", s.cfg.Sync.RangeMaxDays)}
	}

	sourceLabel := fmt.Sprintf("api_%s_%s-%s", providerName, start.Format("20060102"), end.Format("20060102"))
	auditLog, err := s.logRepo.Start(ctx, sourceLabel, model.KindLiveRange)
	if err != nil {
		return RangeOutcome{Success: false, Message: fmt.Sprintf("创建审计日志失败: %v", err)}
	}

	outcome := RangeOutcome{TotalDates: days}
	totalRecords := 0
	var totalPayload int64

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dayOutcome, payloadSize := s.runOnce(ctx, provider, d)
		if payloadSize != nil {
			totalPayload += *payloadSize
		}

		outcome.Details = append(outcome.Details, DateOutcome{Date: d.Format("2006-01-02"), Outcome: dayOutcome})
		if dayOutcome.Success {
			outcome.SuccessfulDates++
			outcome.GamesCreated += dayOutcome.GamesCreated
			outcome.ResultsTouched += dayOutcome.ResultsTouched
			totalRecords += dayOutcome.TotalRecords
		} else {
			outcome.FailedDates++
			s.logger.Errorf("区间导入%s失败: %s", d.Format("2006-01-02"), dayOutcome.Message)
		}

		// 逐日之间留间隔，避免压垮上游
		if !d.Equal(end) {
			select {
			case <-ctx.Done():
				outcome.FailedDates += days - len(outcome.Details)
				outcome.Message = "区间导入被取消"
				s.finalizeRange(ctx, auditLog.ID, &outcome, totalRecords, totalPayload)
				return outcome
			case <-time.After(s.cfg.Sync.RequestDelay):
			}
		}
	}

	outcome.Success = true
	outcome.Message = fmt.Sprintf("区间导入完成: 成功%d天，失败%d天", outcome.SuccessfulDates, outcome.FailedDates)
	s.finalizeRange(ctx, auditLog.ID, &outcome, totalRecords, totalPayload)
	return outcome
}

// finalizeRange 区间结束后完结审计记录，逐日明细序列化进details
func (s *ImportService) finalizeRange(ctx context.Context, logID uint64, outcome *RangeOutcome, totalRecords int, totalPayload int64) {
	details, err := json.Marshal(outcome.Details)
	if err != nil {
		s.logger.WithError(err).Warn("序列化区间明细失败")
		details = nil
	}

	if !outcome.Success {
		if err := s.logRepo.FinishFailed(ctx, logID, outcome.Message); err != nil {
			s.logger.WithError(err).Error("完结区间审计日志失败")
		}
		return
	}

	stats := &interfaces.UpsertStats{GamesCreated: outcome.GamesCreated, ResultsTouched: outcome.ResultsTouched}
	if err := s.logRepo.FinishSuccess(ctx, logID, stats, totalRecords, &totalPayload, details); err != nil {
		s.logger.WithError(err).Error("完结区间审计日志失败")
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
