package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
)

// SourceHandler 数据源API处理器
type SourceHandler struct {
	registry *source.Registry
}

// NewSourceHandler 创建SourceHandler
func NewSourceHandler(registry *source.Registry) *SourceHandler {
	return &SourceHandler{registry: registry}
}

// List 列出数据源，可按category过滤
// GET /api/v1/sources
func (h *SourceHandler) List(c *gin.Context) {
	descs := h.registry.List(c.Query("category"))
	items := make([]dto.SourceSummary, 0, len(descs))
	for _, d := range descs {
		items = append(items, toSourceSummary(d))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.SourceSummary]{
		Total: len(items),
		Items: items,
	}))
}

// Get 获取数据源详情
// GET /api/v1/sources/:name
func (h *SourceHandler) Get(c *gin.Context) {
	desc, ok := h.registry.Describe(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "数据源不存在"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toSourceSummary(desc)))
}

// Categories 列出分类及数据源数量
// GET /api/v1/categories
func (h *SourceHandler) Categories(c *gin.Context) {
	counts := make(map[string]int)
	for _, d := range h.registry.List("") {
		counts[d.Category]++
	}
	items := make([]dto.CategorySummary, 0, len(source.Categories))
	for _, cat := range source.Categories {
		items = append(items, dto.CategorySummary{
			Name:        cat.Name,
			Description: cat.Description,
			Count:       counts[cat.Name],
		})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(items))
}
