package api

import (
	"net/http"
	"time"

	"github.com/mickthaweevit/number-watcher/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ImportHandler 导入触发与调度器控制接口
type ImportHandler struct {
	sched  *scheduler.Scheduler
	logger *logrus.Logger
}

func NewImportHandler(sched *scheduler.Scheduler, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		sched:  sched,
		logger: logger,
	}
}

// TriggerImport 手动触发指定上游单日导入
// POST /api/import/:provider?date=2025-06-22（date缺省为今天）
func (h *ImportHandler) TriggerImport(c *gin.Context) {
	providerName := c.Param("provider")

	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date格式应为YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	outcome := h.sched.TriggerImport(providerName, date)
	if !outcome.Success {
		c.JSON(http.StatusInternalServerError, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// rangeRequest 区间导入请求体
type rangeRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// TriggerRangeImport 手动触发区间导入
// POST /api/import/:provider/range  body: {"start_date":"2025-06-01","end_date":"2025-06-22"}
func (h *ImportHandler) TriggerRangeImport(c *gin.Context) {
	providerName := c.Param("provider")

	var req rangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体需包含start_date和end_date"})
		return
	}

	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date格式应为YYYY-MM-DD"})
		return
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date格式应为YYYY-MM-DD"})
		return
	}

	outcome := h.sched.TriggerRangeImport(providerName, start, end)
	if !outcome.Success {
		c.JSON(http.StatusBadRequest, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// TriggerSampleImport 导入本地样例文件（联调用）
// POST /api/import/sample
func (h *ImportHandler) TriggerSampleImport(c *gin.Context) {
	outcome := h.sched.TriggerSampleImport()
	if !outcome.Success {
		c.JSON(http.StatusInternalServerError, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// StartScheduler 启动定时导入
// POST /api/scheduler/start
func (h *ImportHandler) StartScheduler(c *gin.Context) {
	h.sched.Start()
	c.JSON(http.StatusOK, h.sched.GetStatus())
}

// StopScheduler 停止定时导入
// POST /api/scheduler/stop
func (h *ImportHandler) StopScheduler(c *gin.Context) {
	h.sched.Stop()
	c.JSON(http.StatusOK, h.sched.GetStatus())
}

// SchedulerStatus 调度器状态
// GET /api/scheduler/status
func (h *ImportHandler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sched.GetStatus())
}
