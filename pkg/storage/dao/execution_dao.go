package dao

import (
	"database/sql"
	"time"
)

// ExecutionDAO acquisition_execution表的数据访问对象（内部使用）
type ExecutionDAO struct {
	ID              string         `db:"id"`
	Source          string         `db:"source"`
	TableName       string         `db:"table_name"`
	Params          string         `db:"params"` // JSON格式存储
	Status          string         `db:"status"`
	TriggeredBy     string         `db:"triggered_by"`
	RetryCount      int            `db:"retry_count"`
	RowsBefore      int64          `db:"rows_before"`
	RowsAfter       int64          `db:"rows_after"`
	RowsWritten     int            `db:"rows_written"`
	StartTime       time.Time      `db:"start_time"`
	EndTime         sql.NullTime   `db:"end_time"`
	DurationSeconds float64        `db:"duration_seconds"`
	ErrorMessage    sql.NullString `db:"error_message"`
}

// ExecutionStatusDAO 按状态聚合的统计行（内部使用）
type ExecutionStatusDAO struct {
	Status      string  `db:"status"`
	Count       int     `db:"cnt"`
	AvgDuration float64 `db:"avg_duration"`
	RowsAdded   int64   `db:"rows_added"`
}
