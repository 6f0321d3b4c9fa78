package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

// StatusForError 将采集失败类型映射为HTTP状态码
func StatusForError(err error) int {
	switch acquisition.KindOf(err) {
	case acquisition.KindNotFound:
		return http.StatusNotFound
	case acquisition.KindTimeout:
		return http.StatusGatewayTimeout
	case acquisition.KindCallFailed:
		return http.StatusBadGateway
	case acquisition.KindInvalidRequest:
		return http.StatusBadRequest
	case acquisition.KindEmpty:
		return http.StatusUnprocessableEntity
	case acquisition.KindWriteFailed:
		return http.StatusInternalServerError
	}
	if errors.Is(err, source.ErrFunctionNotFound) || errors.Is(err, storage.ErrExecutionNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, storage.ErrInvalidIdentifier) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func toSourceSummary(d source.Descriptor) dto.SourceSummary {
	out := dto.SourceSummary{Name: d.Name, Category: d.Category, Description: d.Description}
	for _, p := range d.Parameters {
		out.Parameters = append(out.Parameters, dto.ParamSummary{
			Name:        p.Name,
			Type:        p.Type,
			Required:    p.Required,
			Default:     p.Default,
			Description: p.Description,
		})
	}
	return out
}

func toExecutionSummary(rec *storage.ExecutionRecord) dto.ExecutionSummary {
	out := dto.ExecutionSummary{
		ID:              rec.ID,
		Source:          rec.Source,
		Table:           rec.Table,
		Status:          rec.Status,
		TriggeredBy:     rec.TriggeredBy,
		RetryCount:      rec.RetryCount,
		RowsBefore:      rec.RowsBefore,
		RowsAfter:       rec.RowsAfter,
		RowsWritten:     rec.RowsWritten,
		StartedAt:       rec.StartTime,
		FinishedAt:      rec.EndTime,
		DurationSeconds: rec.Duration.Seconds(),
		ErrorMessage:    rec.ErrorMessage,
	}
	if rec.EndTime != nil {
		out.Duration = formatDuration(rec.Duration)
	}
	return out
}

// ToExecutionDetail 执行记录转换为API详情
func ToExecutionDetail(rec *storage.ExecutionRecord) dto.ExecutionDetail {
	return dto.ExecutionDetail{ExecutionSummary: toExecutionSummary(rec), Params: rec.Params}
}

// formatDuration 格式化时长
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
