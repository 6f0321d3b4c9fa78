package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/core/engine"
)

// ScheduleHandler 定时任务API处理器
type ScheduleHandler struct {
	scheduler *engine.CronScheduler
}

// NewScheduleHandler 创建ScheduleHandler
func NewScheduleHandler(scheduler *engine.CronScheduler) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler}
}

// List 列出已注册的定时任务
// GET /api/v1/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	infos := h.scheduler.List()
	items := make([]dto.ScheduleSummary, 0, len(infos))
	for _, s := range infos {
		items = append(items, dto.ScheduleSummary{
			Name:    s.Name,
			Cron:    s.CronExpr,
			Source:  s.Source,
			Table:   s.Table,
			Mode:    s.Mode,
			NextRun: timePtr(s.Next),
			LastRun: timePtr(s.Prev),
		})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.ScheduleSummary]{
		Total: len(items),
		Items: items,
	}))
}
