package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

// ExecutionHandler 执行记录API处理器
type ExecutionHandler struct {
	repo storage.ExecutionRepository
}

// NewExecutionHandler 创建ExecutionHandler
func NewExecutionHandler(repo storage.ExecutionRepository) *ExecutionHandler {
	return &ExecutionHandler{repo: repo}
}

// List 查询执行记录
// GET /api/v1/executions
func (h *ExecutionHandler) List(c *gin.Context) {
	var query dto.ListExecutionsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数错误: %v", err)))
		return
	}

	limit := query.GetDefaultLimit()
	// 多取一条判断是否还有下一页
	recs, err := h.repo.List(c.Request.Context(), storage.ExecutionFilter{
		Source: query.Source,
		Status: query.Status,
		Limit:  limit + 1,
		Offset: query.Offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询执行记录失败: %v", err)))
		return
	}

	hasMore := len(recs) > limit
	if hasMore {
		recs = recs[:limit]
	}
	items := make([]dto.ExecutionSummary, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toExecutionSummary(rec))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.ExecutionSummary]{
		Total:   query.Offset + len(items),
		Items:   items,
		HasMore: hasMore,
	}))
}

// Get 获取执行记录详情
// GET /api/v1/executions/:id
func (h *ExecutionHandler) Get(c *gin.Context) {
	rec, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrExecutionNotFound) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "执行记录不存在"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询执行记录失败: %v", err)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(ToExecutionDetail(rec)))
}

// Stats 执行统计，days默认7天
// GET /api/v1/executions/stats
func (h *ExecutionHandler) Stats(c *gin.Context) {
	var query dto.StatsQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数错误: %v", err)))
		return
	}
	since := time.Now().AddDate(0, 0, -query.GetDefaultDays())
	stats, err := h.repo.Stats(c.Request.Context(), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("统计失败: %v", err)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ExecutionStatsResponse{
		Since:        since,
		Total:        stats.Total,
		Completed:    stats.Completed,
		Failed:       stats.Failed,
		Timeout:      stats.Timeout,
		Running:      stats.Running,
		SuccessRate:  stats.SuccessRate,
		AvgDuration:  stats.AvgDuration,
		TotalRowsAdd: stats.TotalRowsAdd,
	}))
}
