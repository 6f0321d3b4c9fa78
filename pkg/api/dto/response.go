package dto

import "time"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total   int  `json:"total"`
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse 就绪检查响应
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sources  int    `json:"sources"`
}

// ParamSummary 数据源参数
type ParamSummary struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Description string      `json:"description,omitempty"`
}

// SourceSummary 数据源信息
type SourceSummary struct {
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description,omitempty"`
	Parameters  []ParamSummary `json:"parameters,omitempty"`
}

// CategorySummary 数据源分类
type CategorySummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// ExecutionSummary 执行记录摘要
type ExecutionSummary struct {
	ID              string     `json:"id"`
	Source          string     `json:"source"`
	Table           string     `json:"table"`
	Status          string     `json:"status"`
	TriggeredBy     string     `json:"triggered_by"`
	RetryCount      int        `json:"retry_count"`
	RowsBefore      int64      `json:"rows_before"`
	RowsAfter       int64      `json:"rows_after"`
	RowsWritten     int        `json:"rows_written"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Duration        string     `json:"duration,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// ExecutionDetail 执行记录详情
type ExecutionDetail struct {
	ExecutionSummary
	Params map[string]interface{} `json:"params,omitempty"`
}

// AcquisitionResponse 采集请求响应
type AcquisitionResponse struct {
	Execution ExecutionDetail `json:"execution"`
	State     string          `json:"state,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
}

// ExecutionStatsResponse 执行统计
type ExecutionStatsResponse struct {
	Since        time.Time `json:"since"`
	Total        int       `json:"total"`
	Completed    int       `json:"completed"`
	Failed       int       `json:"failed"`
	Timeout      int       `json:"timeout"`
	Running      int       `json:"running"`
	SuccessRate  float64   `json:"success_rate"`
	AvgDuration  float64   `json:"avg_duration_seconds"`
	TotalRowsAdd int64     `json:"total_rows_added"`
}

// TableStats 表统计
type TableStats struct {
	Table     string    `json:"table"`
	Exists    bool      `json:"exists"`
	RowCount  int64     `json:"row_count"`
	Columns   []string  `json:"columns,omitempty"`
	Cached    bool      `json:"cached"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleSummary 定时任务
type ScheduleSummary struct {
	Name     string     `json:"name"`
	Cron     string     `json:"cron"`
	Source   string     `json:"source"`
	Table    string     `json:"table"`
	Mode     string     `json:"mode"`
	NextRun  *time.Time `json:"next_run,omitempty"`
	LastRun  *time.Time `json:"last_run,omitempty"`
}

// WSMessage WebSocket消息
type WSMessage struct {
	Type string      `json:"type"` // execution_update/pong/connected/error
	Data interface{} `json:"data,omitempty"`
}
