package api

import (
	"net/http"
	"strconv"

	"github.com/mickthaweevit/number-watcher/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// QueryHandler 提供给前端的只读查询接口
type QueryHandler struct {
	queryRepo *repository.QueryRepository
	logger    *logrus.Logger
}

func NewQueryHandler(db *gorm.DB, logger *logrus.Logger) *QueryHandler {
	return &QueryHandler{
		queryRepo: repository.NewQueryRepository(db),
		logger:    logger,
	}
}

// ListGames 游戏列表
// GET /api/games?source=v1&active=true
func (h *QueryHandler) ListGames(c *gin.Context) {
	filter := repository.GameFilter{
		Source:     c.Query("source"),
		OnlyActive: c.Query("active") == "true",
	}

	games, err := h.queryRepo.ListGames(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("ListGames failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(games),
		"games": games,
	})
}

// ListResults 开奖结果列表，按日期倒序分页
// GET /api/results?source=v2&page=1&page_size=50
func (h *QueryHandler) ListResults(c *gin.Context) {
	source := c.Query("source")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	rows, total, err := h.queryRepo.ListResults(c.Request.Context(), source, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListResults failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"results":   rows,
	})
}

// ListImportLogs 导入审计日志
// GET /api/import-logs?limit=100
func (h *QueryHandler) ListImportLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.queryRepo.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListImportLogs failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(logs),
		"logs":  logs,
	})
}

// Health 健康检查
// GET /health
func (h *QueryHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
