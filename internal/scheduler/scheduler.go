package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/config"
	"github.com/mickthaweevit/number-watcher/internal/model"
	"github.com/mickthaweevit/number-watcher/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler 定时导入调度器。
// 工作池随实例常驻（手动触发不依赖定时器状态），Start/Stop只控制定时tick。
// tick不互斥：慢任务不阻塞下一次tick，同一标识的并发写靠库的唯一约束收敛
type Scheduler struct {
	cfg      *config.Config
	logger   *logrus.Logger
	importer *service.ImportService

	mu      sync.Mutex
	running bool
	cron    *cron.Cron

	jobs     chan func()
	workerWg sync.WaitGroup
	closed   bool

	now func() time.Time // 注入时钟，测试可替换
}

// Status 调度器状态（无副作用查询）
type Status struct {
	Running             bool     `json:"running"`
	ConfiguredProviders []string `json:"configured_providers"`
	Interval            string   `json:"interval"`
	NextRuns            []string `json:"next_runs"`
	Workers             int      `json:"workers"`
}

func New(cfg *config.Config, logger *logrus.Logger, importer *service.ImportService) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		logger:   logger,
		importer: importer,
		jobs:     make(chan func(), 16),
		now:      time.Now,
	}

	for i := 0; i < cfg.Sync.Workers; i++ {
		s.workerWg.Add(1)
		go s.worker()
	}
	return s
}

func (s *Scheduler) worker() {
	defer s.workerWg.Done()
	for job := range s.jobs {
		job()
	}
}

// Start 启动定时tick。重复调用是无操作；未配置任何上游地址时拒绝启动
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Warn("调度器已关闭，无法启动")
		return
	}
	if s.running {
		s.logger.Warn("调度器已在运行")
		return
	}

	providers := s.tickProviders()
	if len(providers) == 0 {
		s.logger.Warn("未配置任何上游地址，调度器不启动")
		return
	}

	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.cfg.Sync.Interval)
	for _, name := range providers {
		name := name
		if _, err := s.cron.AddFunc(spec, func() { s.enqueueTick(name) }); err != nil {
			s.logger.WithError(err).Errorf("注册%s定时任务失败", name)
		}
	}
	s.cron.Start()
	s.running = true
	s.logger.Infof("调度器已启动，间隔%s，上游: %v", s.cfg.Sync.Interval, providers)
}

// Stop 停止定时tick（不等在途任务）。重复调用是无操作
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Warn("调度器未在运行")
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.running = false
	s.logger.Info("调度器已停止")
}

// Close 关闭工作池，进程退出前调用。已入队任务会执行完
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	var cronCtx context.Context
	if s.running {
		cronCtx = s.cron.Stop()
		s.cron = nil
		s.running = false
	}
	s.mu.Unlock()

	// 等在途tick回调退出后再关队列，避免向已关闭通道发送
	if cronCtx != nil {
		<-cronCtx.Done()
	}

	s.mu.Lock()
	close(s.jobs)
	s.mu.Unlock()
	s.workerWg.Wait()
}

// tickProviders 参与定时tick的上游：已配置地址，且在enabled_providers白名单内
// （白名单为空视为全部启用）。手动触发不受白名单限制
func (s *Scheduler) tickProviders() []string {
	configured := s.importer.ConfiguredProviders()
	if len(s.cfg.Sync.EnabledProviders) == 0 {
		return configured
	}

	enabled := make(map[string]bool, len(s.cfg.Sync.EnabledProviders))
	for _, name := range s.cfg.Sync.EnabledProviders {
		enabled[name] = true
	}

	var names []string
	for _, name := range configured {
		if enabled[name] {
			names = append(names, name)
		}
	}
	return names
}

// enqueueTick 定时tick入队（非阻塞）。队列满说明积压严重，跳过本次等下个tick
func (s *Scheduler) enqueueTick(providerName string) {
	tickDate := s.now().UTC()
	job := func() {
		outcome := s.importer.RunForDate(context.Background(), providerName, tickDate, model.KindLive)
		if outcome.Success {
			s.logger.Infof("定时导入%s完成: %s", providerName, outcome.Message)
		} else {
			s.logger.Errorf("定时导入%s失败: %s", providerName, outcome.Message)
		}
	}

	if !s.submit(job) {
		s.logger.Warnf("任务队列已满或调度器已关闭，跳过%s本次定时导入", providerName)
	}
}

// TriggerImport 手动单日导入。同步等待至多ManualTimeout；
// 超时只向调用方报超时，在途任务不终止（之后仍可能提交，审计日志可查）
func (s *Scheduler) TriggerImport(providerName string, date time.Time) service.ImportOutcome {
	resultCh := make(chan service.ImportOutcome, 1)
	job := func() {
		resultCh <- s.importer.RunForDate(context.Background(), providerName, date, model.KindLive)
	}

	if !s.submit(job) {
		return service.ImportOutcome{Success: false, Message: "导入任务队列已满，请稍后再试"}
	}

	select {
	case outcome := <-resultCh:
		return outcome
	case <-time.After(s.cfg.Sync.ManualTimeout):
		return service.ImportOutcome{Success: false, Message: "手动导入等待超时，任务仍在后台执行"}
	}
}

// TriggerRangeImport 手动区间导入，整体等待上限RangeTimeout
func (s *Scheduler) TriggerRangeImport(providerName string, start, end time.Time) service.RangeOutcome {
	resultCh := make(chan service.RangeOutcome, 1)
	job := func() {
		resultCh <- s.importer.RunDateRange(context.Background(), providerName, start, end)
	}

	if !s.submit(job) {
		return service.RangeOutcome{Success: false, Message: "导入任务队列已满，请稍后再试"}
	}

	select {
	case outcome := <-resultCh:
		return outcome
	case <-time.After(s.cfg.Sync.RangeTimeout):
		return service.RangeOutcome{Success: false, Message: "区间导入等待超时，任务仍在后台执行"}
	}
}

// TriggerSampleImport 手动样例文件导入
func (s *Scheduler) TriggerSampleImport() service.ImportOutcome {
	resultCh := make(chan service.ImportOutcome, 1)
	job := func() {
		resultCh <- s.importer.RunSampleImport(context.Background())
	}

	if !s.submit(job) {
		return service.ImportOutcome{Success: false, Message: "导入任务队列已满，请稍后再试"}
	}

	select {
	case outcome := <-resultCh:
		return outcome
	case <-time.After(s.cfg.Sync.ManualTimeout):
		return service.ImportOutcome{Success: false, Message: "样例导入等待超时，任务仍在后台执行"}
	}
}

func (s *Scheduler) submit(job func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.jobs <- job:
		return true
	default:
		return false
	}
}

// GetStatus 状态查询：是否在跑、配置了哪些上游、下次tick时间
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:             s.running,
		ConfiguredProviders: s.importer.ConfiguredProviders(),
		Interval:            s.cfg.Sync.Interval.String(),
		Workers:             s.cfg.Sync.Workers,
	}
	if s.running && s.cron != nil {
		for _, entry := range s.cron.Entries() {
			status.NextRuns = append(status.NextRuns, entry.Next.Format(time.RFC3339))
		}
	}
	return status
}
