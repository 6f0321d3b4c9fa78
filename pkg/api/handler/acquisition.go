package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/core/engine"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

// AcquisitionHandler 采集API处理器
type AcquisitionHandler struct {
	engine *engine.Engine
}

// NewAcquisitionHandler 创建AcquisitionHandler
func NewAcquisitionHandler(eng *engine.Engine) *AcquisitionHandler {
	return &AcquisitionHandler{engine: eng}
}

// ToRequest 将API请求转换为采集请求
func ToRequest(body dto.AcquireRequest) (acquisition.Request, error) {
	mode, err := storage.ParseWriteMode(body.Mode)
	if err != nil {
		return acquisition.Request{}, err
	}
	return acquisition.Request{
		Source:      body.Source,
		Params:      body.Params,
		Table:       body.Table,
		Timeout:     time.Duration(body.TimeoutSeconds) * time.Second,
		Mode:        mode,
		UniqueKeys:  body.UniqueKeys,
		BatchSize:   body.BatchSize,
		FailOnEmpty: body.FailOnEmpty,
	}, nil
}

// Create 发起采集；async=true时立即返回202和pending记录
// POST /api/v1/acquisitions
func (h *AcquisitionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var body dto.AcquireRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}
	req, err := ToRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}

	if body.Async {
		rec, err := h.engine.Submit(ctx, req, storage.TriggerAPI)
		if errors.Is(err, engine.ErrEngineStopped) {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, err.Error()))
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("提交采集失败: %v", err)))
			return
		}
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(dto.AcquisitionResponse{
			Execution: ToExecutionDetail(rec),
			State:     string(acquisition.StateIdle),
		}))
		return
	}

	rec, err := h.engine.Run(ctx, req, storage.TriggerAPI)
	if errors.Is(err, engine.ErrEngineStopped) {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, err.Error()))
		return
	}
	if rec == nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("采集失败: %v", err)))
		return
	}
	resp := dto.AcquisitionResponse{Execution: ToExecutionDetail(rec), State: string(acquisition.StateDone)}
	if err != nil {
		var aErr *acquisition.AcquisitionError
		if errors.As(err, &aErr) {
			resp.State = string(aErr.State)
			resp.ErrorKind = string(aErr.Kind)
		}
		status := StatusForError(err)
		c.JSON(status, dto.APIResponse[dto.AcquisitionResponse]{Code: status, Message: err.Error(), Data: resp})
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
