package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/core/engine"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	engine    *engine.Engine
	version   string
	startTime time.Time
}

// NewHealthHandler 创建HealthHandler
func NewHealthHandler(eng *engine.Engine, version string) *HealthHandler {
	return &HealthHandler{
		engine:    eng,
		version:   version,
		startTime: time.Now(),
	}
}

// Health 健康检查
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    formatDuration(time.Since(h.startTime)),
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}

// Ready 就绪检查，数据库不可用时返回503
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := dto.ReadyResponse{Status: "ready", Database: "ok", Sources: h.engine.Registry().Len()}
	if err := h.engine.Pool().Ping(ctx); err != nil {
		resp.Status = "not_ready"
		resp.Database = err.Error()
		c.JSON(http.StatusServiceUnavailable, dto.APIResponse[dto.ReadyResponse]{
			Code:    http.StatusServiceUnavailable,
			Message: "数据库不可用",
			Data:    resp,
		})
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
