package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LENAX/akshare-warehouse/pkg/storage/dao"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// ExecutionTable 执行记录表名
const ExecutionTable = "acquisition_execution"

const executionColumns = "id, source, table_name, params, status, triggered_by, retry_count, " +
	"rows_before, rows_after, rows_written, start_time, end_time, duration_seconds, error_message"

// ExecutionRepo 基于sqlx的执行记录存储，兼容所有方言（对外导出）
type ExecutionRepo struct {
	pool *ConnectionPool
}

// NewExecutionRepo 创建执行记录存储并初始化表结构（对外导出）
func NewExecutionRepo(ctx context.Context, pool *ConnectionPool) (*ExecutionRepo, error) {
	repo := &ExecutionRepo{pool: pool}
	if err := repo.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return repo, nil
}

func (r *ExecutionRepo) initSchema(ctx context.Context) error {
	d := r.pool.Dialect()
	text := d.ColumnType(tabular.KindText)
	integer := d.ColumnType(tabular.KindInt)
	ts := d.ColumnType(tabular.KindTime)
	schema := &TableSchema{
		Name: ExecutionTable,
		Columns: []ColumnSchema{
			{Name: "id", SQLType: d.KeyType(), NotNull: true},
			{Name: "source", SQLType: text, NotNull: true},
			{Name: "table_name", SQLType: text, NotNull: true},
			{Name: "params", SQLType: text},
			{Name: "status", SQLType: text, NotNull: true},
			{Name: "triggered_by", SQLType: text, NotNull: true},
			{Name: "retry_count", SQLType: integer, NotNull: true},
			{Name: "rows_before", SQLType: integer, NotNull: true},
			{Name: "rows_after", SQLType: integer, NotNull: true},
			{Name: "rows_written", SQLType: integer, NotNull: true},
			{Name: "start_time", SQLType: ts, NotNull: true},
			{Name: "end_time", SQLType: ts},
			{Name: "duration_seconds", SQLType: d.ColumnType(tabular.KindFloat), NotNull: true},
			{Name: "error_message", SQLType: text},
		},
		PrimaryKey: []string{"id"},
	}
	if _, err := r.pool.DB().ExecContext(ctx, d.CreateTableSQL(schema)); err != nil {
		return fmt.Errorf("执行SQL失败: %w", err)
	}
	return nil
}

// Create 保存新的执行记录（对外导出）
func (r *ExecutionRepo) Create(ctx context.Context, rec *ExecutionRecord) error {
	row, err := recordToDAO(rec)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ExecutionTable, executionColumns, PlaceholderList(r.pool.Dialect(), 14))
	_, err = r.pool.DB().ExecContext(ctx, query,
		row.ID, row.Source, row.TableName, row.Params, row.Status, row.TriggeredBy, row.RetryCount,
		row.RowsBefore, row.RowsAfter, row.RowsWritten, row.StartTime, row.EndTime, row.DurationSeconds, row.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("保存执行记录失败: %w", err)
	}
	return nil
}

// Update 更新执行记录（对外导出）
func (r *ExecutionRepo) Update(ctx context.Context, rec *ExecutionRecord) error {
	row, err := recordToDAO(rec)
	if err != nil {
		return err
	}
	query := Rebind(r.pool.Dialect(), fmt.Sprintf(`UPDATE %s SET status = ?, retry_count = ?, rows_before = ?,
		rows_after = ?, rows_written = ?, start_time = ?, end_time = ?, duration_seconds = ?, error_message = ? WHERE id = ?`, ExecutionTable))
	_, err = r.pool.DB().ExecContext(ctx, query,
		row.Status, row.RetryCount, row.RowsBefore, row.RowsAfter, row.RowsWritten,
		row.StartTime, row.EndTime, row.DurationSeconds, row.ErrorMessage, row.ID,
	)
	if err != nil {
		return fmt.Errorf("更新执行记录失败: %w", err)
	}
	return nil
}

// GetByID 根据ID查询执行记录（对外导出）
func (r *ExecutionRepo) GetByID(ctx context.Context, id string) (*ExecutionRecord, error) {
	var row dao.ExecutionDAO
	query := Rebind(r.pool.Dialect(), fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", executionColumns, ExecutionTable))
	if err := r.pool.DB().GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
		}
		return nil, fmt.Errorf("查询执行记录失败: %w", err)
	}
	return daoToRecord(&row)
}

// List 按条件查询执行记录（对外导出）
func (r *ExecutionRepo) List(ctx context.Context, filter ExecutionFilter) ([]*ExecutionRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", executionColumns, ExecutionTable)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY start_time DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	var rows []dao.ExecutionDAO
	if err := r.pool.DB().SelectContext(ctx, &rows, Rebind(r.pool.Dialect(), query), args...); err != nil {
		return nil, fmt.Errorf("查询执行记录列表失败: %w", err)
	}
	out := make([]*ExecutionRecord, 0, len(rows))
	for i := range rows {
		rec, err := daoToRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Stats 统计since之后开始的执行（对外导出）
func (r *ExecutionRepo) Stats(ctx context.Context, since time.Time) (*ExecutionStats, error) {
	query := Rebind(r.pool.Dialect(), fmt.Sprintf(`SELECT status, COUNT(*) AS cnt,
		COALESCE(AVG(duration_seconds), 0) AS avg_duration,
		COALESCE(SUM(rows_after - rows_before), 0) AS rows_added
		FROM %s WHERE start_time >= ? GROUP BY status`, ExecutionTable))

	var rows []dao.ExecutionStatusDAO
	if err := r.pool.DB().SelectContext(ctx, &rows, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("统计执行记录失败: %w", err)
	}

	stats := &ExecutionStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case ExecutionCompleted:
			stats.Completed = row.Count
			stats.AvgDuration = row.AvgDuration
			stats.TotalRowsAdd = row.RowsAdded
		case ExecutionFailed:
			stats.Failed = row.Count
		case ExecutionTimeout:
			stats.Timeout = row.Count
		case ExecutionRunning, ExecutionPending:
			stats.Running += row.Count
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(stats.Total)
	}
	return stats, nil
}

func recordToDAO(rec *ExecutionRecord) (*dao.ExecutionDAO, error) {
	params := "{}"
	if len(rec.Params) > 0 {
		b, err := json.Marshal(rec.Params)
		if err != nil {
			return nil, fmt.Errorf("序列化参数失败: %w", err)
		}
		params = string(b)
	}
	row := &dao.ExecutionDAO{
		ID:              rec.ID,
		Source:          rec.Source,
		TableName:       rec.Table,
		Params:          params,
		Status:          rec.Status,
		TriggeredBy:     rec.TriggeredBy,
		RetryCount:      rec.RetryCount,
		RowsBefore:      rec.RowsBefore,
		RowsAfter:       rec.RowsAfter,
		RowsWritten:     rec.RowsWritten,
		StartTime:       rec.StartTime.UTC(),
		DurationSeconds: rec.Duration.Seconds(),
	}
	if rec.EndTime != nil {
		row.EndTime = sql.NullTime{Time: rec.EndTime.UTC(), Valid: true}
	}
	if rec.ErrorMessage != "" {
		row.ErrorMessage = sql.NullString{String: rec.ErrorMessage, Valid: true}
	}
	return row, nil
}

func daoToRecord(row *dao.ExecutionDAO) (*ExecutionRecord, error) {
	rec := &ExecutionRecord{
		ID:           row.ID,
		Source:       row.Source,
		Table:        row.TableName,
		Status:       row.Status,
		TriggeredBy:  row.TriggeredBy,
		RetryCount:   row.RetryCount,
		RowsBefore:   row.RowsBefore,
		RowsAfter:    row.RowsAfter,
		RowsWritten:  row.RowsWritten,
		StartTime:    row.StartTime,
		Duration:     time.Duration(row.DurationSeconds * float64(time.Second)),
		ErrorMessage: row.ErrorMessage.String,
	}
	if row.EndTime.Valid {
		t := row.EndTime.Time
		rec.EndTime = &t
	}
	if row.Params != "" {
		if err := json.Unmarshal([]byte(row.Params), &rec.Params); err != nil {
			return nil, fmt.Errorf("反序列化参数失败: %w", err)
		}
	}
	return rec, nil
}

// 确保实现接口
var _ ExecutionRepository = (*ExecutionRepo)(nil)
