package storage

import (
	"context"
	"errors"
	"time"
)

// ErrExecutionNotFound 执行记录不存在（对外导出）
var ErrExecutionNotFound = errors.New("execution not found")

// 执行状态
const (
	ExecutionPending   = "pending"
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
	ExecutionTimeout   = "timeout"
)

// 触发方式
const (
	TriggerManual    = "manual"
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
)

// ExecutionRepository 采集执行记录存储接口（对外导出）
type ExecutionRepository interface {
	// Create 保存新的执行记录
	Create(ctx context.Context, rec *ExecutionRecord) error
	// Update 更新执行记录的状态和结果
	Update(ctx context.Context, rec *ExecutionRecord) error
	// GetByID 根据ID查询执行记录，不存在时返回ErrExecutionNotFound
	GetByID(ctx context.Context, id string) (*ExecutionRecord, error)
	// List 按条件查询执行记录，按开始时间倒序
	List(ctx context.Context, filter ExecutionFilter) ([]*ExecutionRecord, error)
	// Stats 统计执行情况
	Stats(ctx context.Context, since time.Time) (*ExecutionStats, error)
}

// ExecutionRecord 一次采集执行的记录（对外导出）
type ExecutionRecord struct {
	ID           string                 // 执行ID（UUID）
	Source       string                 // 数据源函数名
	Table        string                 // 目标表
	Params       map[string]interface{} // 调用参数（JSON格式存储）
	Status       string                 // pending/running/completed/failed/timeout
	TriggeredBy  string                 // manual/api/scheduler
	RetryCount   int                    // 已重试次数
	RowsBefore   int64                  // 执行前表行数
	RowsAfter    int64                  // 执行后表行数
	RowsWritten  int                    // 本次提交的行数
	StartTime    time.Time              // 开始时间
	EndTime      *time.Time             // 结束时间
	Duration     time.Duration          // 耗时
	ErrorMessage string                 // 错误信息
}

// IsTerminal 是否已结束
func (r *ExecutionRecord) IsTerminal() bool {
	switch r.Status {
	case ExecutionCompleted, ExecutionFailed, ExecutionTimeout:
		return true
	}
	return false
}

// ExecutionFilter 执行记录查询条件（对外导出）
type ExecutionFilter struct {
	Source string
	Status string
	Limit  int
	Offset int
}

// ExecutionStats 执行统计（对外导出）
type ExecutionStats struct {
	Total        int     `json:"total"`
	Completed    int     `json:"completed"`
	Failed       int     `json:"failed"`
	Timeout      int     `json:"timeout"`
	Running      int     `json:"running"`
	SuccessRate  float64 `json:"success_rate"`
	AvgDuration  float64 `json:"avg_duration_seconds"`
	TotalRowsAdd int64   `json:"total_rows_added"`
}
