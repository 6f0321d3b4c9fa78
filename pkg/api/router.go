package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/akshare-warehouse/pkg/api/handler"
	"github.com/LENAX/akshare-warehouse/pkg/api/middleware"
	"github.com/LENAX/akshare-warehouse/pkg/core/cache"
	"github.com/LENAX/akshare-warehouse/pkg/core/engine"
	"github.com/LENAX/akshare-warehouse/pkg/core/events"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Engine     *engine.Engine
	Subscriber events.Subscriber // 为nil时不注册WebSocket
	Cache      cache.ResultCache // 表统计缓存，可为nil
	CacheTTL   time.Duration
	Version    string
	RateLimit  float64
	RateBurst  int
}

// SetupRouter 设置路由
func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	healthHandler := handler.NewHealthHandler(cfg.Engine, cfg.Version)
	sourceHandler := handler.NewSourceHandler(cfg.Engine.Registry())
	acquisitionHandler := handler.NewAcquisitionHandler(cfg.Engine)
	executionHandler := handler.NewExecutionHandler(cfg.Engine.Executions())
	tableHandler := handler.NewTableHandler(cfg.Engine.Pool(), cfg.Cache, cfg.CacheTTL)
	scheduleHandler := handler.NewScheduleHandler(cfg.Engine.Scheduler())

	// 健康检查路由（不带前缀、不限流）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	if cfg.Subscriber != nil {
		wsHandler := handler.NewWebSocketHandler(cfg.Subscriber)
		router.GET("/ws/executions", wsHandler.Serve)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))
	{
		v1.GET("/categories", sourceHandler.Categories)

		sources := v1.Group("/sources")
		{
			sources.GET("", sourceHandler.List)
			sources.GET("/:name", sourceHandler.Get)
		}

		v1.POST("/acquisitions", acquisitionHandler.Create)

		executions := v1.Group("/executions")
		{
			executions.GET("", executionHandler.List)
			executions.GET("/stats", executionHandler.Stats)
			executions.GET("/:id", executionHandler.Get)
		}

		v1.GET("/tables/:name/stats", tableHandler.Stats)
		v1.GET("/schedules", scheduleHandler.List)
	}

	return router
}
