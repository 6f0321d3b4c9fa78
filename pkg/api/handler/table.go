package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/core/cache"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

// TableHandler 数据表API处理器
type TableHandler struct {
	pool  *storage.ConnectionPool
	cache cache.ResultCache
	ttl   time.Duration
}

// NewTableHandler 创建TableHandler，cache为nil时不缓存
func NewTableHandler(pool *storage.ConnectionPool, c cache.ResultCache, ttl time.Duration) *TableHandler {
	return &TableHandler{pool: pool, cache: c, ttl: ttl}
}

// Stats 表的行数和列，结果按ttl缓存；refresh=true时跳过缓存
// GET /api/v1/tables/:name/stats
func (h *TableHandler) Stats(c *gin.Context) {
	table, err := storage.ValidateIdentifier(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}

	key := "table_stats|" + table
	if h.cache != nil && c.Query("refresh") != "true" {
		if v, ok := h.cache.Get(key); ok {
			if stats, ok := v.(dto.TableStats); ok {
				stats.Cached = true
				c.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
				return
			}
		}
	}

	ctx := c.Request.Context()
	stats := dto.TableStats{Table: table, UpdatedAt: time.Now()}
	stats.Exists, err = h.pool.TableExists(ctx, table)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询表失败: %v", err)))
		return
	}
	if stats.Exists {
		if stats.RowCount, err = h.pool.RowCount(ctx, table); err != nil {
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("统计行数失败: %v", err)))
			return
		}
		if stats.Columns, err = h.pool.TableColumns(ctx, table); err != nil {
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询列失败: %v", err)))
			return
		}
	}

	if h.cache != nil {
		_ = h.cache.Set(key, stats, h.ttl)
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}
