// Package events 采集执行事件总线，基于watermill的进程内Pub/Sub
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

// EventType 事件类型
type EventType string

const (
	// EventExecutionUpdate 执行状态变化
	EventExecutionUpdate EventType = "execution_update"
)

// TopicExecutions 执行事件的主题
const TopicExecutions = "acquisition.executions"

// AcquisitionEvent 采集执行事件（对外导出）
type AcquisitionEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	ExecutionID  string    `json:"execution_id"`
	Source       string    `json:"source"`
	Table        string    `json:"table"`
	Status       string    `json:"status"`         // 执行记录状态
	State        string    `json:"state"`          // 编排器状态
	TriggeredBy  string    `json:"triggered_by"`   // manual/api/scheduler
	RowsBefore   int64     `json:"rows_before"`
	RowsAfter    int64     `json:"rows_after"`
	RowsWritten  int       `json:"rows_written"`
	ErrorMessage string    `json:"error_message"`
	Duration     float64   `json:"duration"` // 秒
	Timestamp    time.Time `json:"timestamp"`
}

// NewExecutionEvent 由执行记录生成事件（对外导出）
func NewExecutionEvent(rec *storage.ExecutionRecord, state string) *AcquisitionEvent {
	return &AcquisitionEvent{
		ID:           uuid.NewString(),
		Type:         EventExecutionUpdate,
		ExecutionID:  rec.ID,
		Source:       rec.Source,
		Table:        rec.Table,
		Status:       rec.Status,
		State:        state,
		TriggeredBy:  rec.TriggeredBy,
		RowsBefore:   rec.RowsBefore,
		RowsAfter:    rec.RowsAfter,
		RowsWritten:  rec.RowsWritten,
		ErrorMessage: rec.ErrorMessage,
		Duration:     rec.Duration.Seconds(),
		Timestamp:    time.Now(),
	}
}
