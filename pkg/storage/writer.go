package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// WriteMode 插入模式（对外导出）
type WriteMode int

// 零值为ModeIgnoreDuplicates
const (
	// ModeIgnoreDuplicates 跳过冲突行
	ModeIgnoreDuplicates WriteMode = iota
	// ModePlain 普通插入，违反唯一约束时整批失败
	ModePlain
	// ModeUpsert 冲突时覆盖所有非键列
	ModeUpsert
)

// DefaultBatchSize 默认每批行数
const DefaultBatchSize = 1000

// progressEvery 每隔多少批输出一次进度
const progressEvery = 10

// ErrUpsertKeysRequired ModeUpsert未指定唯一键（对外导出）
var ErrUpsertKeysRequired = errors.New("upsert mode requires unique keys")

// String 返回模式名称
func (m WriteMode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeIgnoreDuplicates:
		return "ignore"
	case ModeUpsert:
		return "upsert"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

// ParseWriteMode 解析模式名称，空字符串返回ModeIgnoreDuplicates（对外导出）
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore", "ignore_duplicates", "ignore-duplicates":
		return ModeIgnoreDuplicates, nil
	case "plain", "insert":
		return ModePlain, nil
	case "upsert", "update":
		return ModeUpsert, nil
	default:
		return ModeIgnoreDuplicates, fmt.Errorf("未知的写入模式: %s", s)
	}
}

// WriteOptions 写入选项（对外导出）
type WriteOptions struct {
	Table           string
	Mode            WriteMode
	UniqueKeys      []string
	CreateIfMissing bool
	BatchSize       int
}

// WriteResult 写入结果（对外导出）
// RowsWritten为提交到存储的行数（含被忽略的冲突行），RowsAffected为驱动报告的影响行数
type WriteResult struct {
	Table          string
	RowsWritten    int
	RowsAffected   int64
	Batches        int
	Columns        []string
	DroppedColumns []string
	Created        bool
	Duration       time.Duration
}

// BatchWriter 批量写入器（对外导出）
type BatchWriter struct {
	pool *ConnectionPool
}

// NewBatchWriter 创建批量写入器（对外导出）
func NewBatchWriter(pool *ConnectionPool) *BatchWriter {
	return &BatchWriter{pool: pool}
}

// Write 将表格结果分批写入指定表（对外导出）
func (w *BatchWriter) Write(ctx context.Context, result *tabular.Result, opts WriteOptions) (*WriteResult, error) {
	start := time.Now()
	out := &WriteResult{Table: strings.TrimSpace(opts.Table)}
	if result.NumRows() == 0 {
		return out, nil
	}

	cleaned, dropped := result.Normalize(func(name string) (bool, string) {
		if IsValidIdentifier(name) {
			return true, ""
		}
		return false, "invalid identifier"
	})
	for _, d := range dropped {
		out.DroppedColumns = append(out.DroppedColumns, d.Name)
	}
	if len(dropped) > 0 {
		log.Printf("⚠️ [写入] 表 %s 丢弃%d个无效列: %v", out.Table, len(dropped), out.DroppedColumns)
	}
	if cleaned.NumColumns() == 0 {
		log.Printf("⚠️ [写入] 表 %s 没有可写入的列，跳过", out.Table)
		return out, nil
	}

	table, err := ValidateIdentifier(opts.Table)
	if err != nil {
		return nil, err
	}
	out.Table = table
	if opts.Mode == ModeUpsert && len(opts.UniqueKeys) == 0 {
		return nil, fmt.Errorf("表 %s: %w", table, ErrUpsertKeysRequired)
	}
	keys := make([]string, 0, len(opts.UniqueKeys))
	for _, k := range opts.UniqueKeys {
		key, err := ValidateIdentifier(k)
		if err != nil {
			return nil, fmt.Errorf("唯一键: %w", err)
		}
		keys = append(keys, key)
	}

	d := w.pool.Dialect()
	conn, err := w.pool.Conn(ctx)
	if err != nil {
		return nil, newWriteError(d, table, 0, 0, err)
	}
	defer conn.Close()

	if opts.CreateIfMissing {
		created, err := w.ensureTable(ctx, conn, table, cleaned)
		if err != nil {
			return nil, newWriteError(d, table, 0, 0, err)
		}
		out.Created = created
	}

	actual, err := d.ListColumns(ctx, conn, table)
	if err != nil {
		return nil, newWriteError(d, table, 0, 0, err)
	}
	indexes, columns, unmatched := alignColumns(cleaned, actual)
	if len(unmatched) > 0 {
		log.Printf("⚠️ [写入] 表 %s 中不存在%d个列，已忽略: %v", table, len(unmatched), unmatched)
		out.DroppedColumns = append(out.DroppedColumns, unmatched...)
	}
	if len(columns) == 0 {
		log.Printf("⚠️ [写入] 表 %s 没有匹配的列，跳过", table)
		return out, nil
	}
	out.Columns = columns

	mode := opts.Mode
	var updateColumns []string
	if mode == ModeUpsert {
		keys = alignNames(keys, actual)
		updateColumns = nonKeyColumns(columns, keys)
		if len(updateColumns) == 0 {
			mode = ModeIgnoreDuplicates
		}
	}
	query := d.InsertSQL(table, columns, mode, keys, updateColumns)

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	total := cleaned.NumRows()
	batches := (total + batchSize - 1) / batchSize

	for b := 0; b < batches; b++ {
		lo := b * batchSize
		hi := lo + batchSize
		if hi > total {
			hi = total
		}
		affected, err := writeBatch(ctx, conn, query, cleaned, indexes, lo, hi)
		if err != nil {
			return out, newWriteError(d, table, b+1, out.RowsWritten, err)
		}
		out.RowsWritten += hi - lo
		out.RowsAffected += affected
		out.Batches++

		if (b+1)%progressEvery == 0 || b+1 == batches {
			log.Printf("📊 [写入] 表 %s 进度 %d/%d 行，第%d/%d批，耗时 %v",
				table, out.RowsWritten, total, b+1, batches, time.Since(start))
		}
	}

	out.Duration = time.Since(start)
	return out, nil
}

// ensureTable 表不存在时按推断的结构创建，返回是否执行了建表
func (w *BatchWriter) ensureTable(ctx context.Context, conn *sqlx.Conn, table string, result *tabular.Result) (bool, error) {
	d := w.pool.Dialect()
	exists, err := d.TableExists(ctx, conn, table)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	schema, err := InferSchema(table, result, d)
	if err != nil {
		return false, err
	}
	if _, err := conn.ExecContext(ctx, d.CreateTableSQL(schema)); err != nil {
		return false, fmt.Errorf("创建表失败: %w", err)
	}
	log.Printf("✅ [写入] 已创建表 %s（%d列）", table, len(schema.Columns))
	return true, nil
}

// writeBatch 在单个事务中写入[lo, hi)行
func writeBatch(ctx context.Context, conn *sqlx.Conn, query string, result *tabular.Result, indexes []int, lo, hi int) (int64, error) {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()

	var affected int64
	args := make([]interface{}, len(indexes))
	for row := lo; row < hi; row++ {
		for i, col := range indexes {
			args[i] = result.Value(row, col)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("第%d行写入失败: %w", row, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("提交事务失败: %w", err)
	}
	return affected, nil
}

// alignColumns 将结果列按大小写不敏感匹配到表的实际列
// 返回结果列下标、实际列名和未匹配的列名
func alignColumns(result *tabular.Result, actual []string) ([]int, []string, []string) {
	lookup := make(map[string]string, len(actual))
	for _, name := range actual {
		lookup[strings.ToLower(name)] = name
	}
	var (
		indexes   []int
		columns   []string
		unmatched []string
	)
	for i, name := range result.ColumnNames() {
		if actualName, ok := lookup[strings.ToLower(name)]; ok {
			indexes = append(indexes, i)
			columns = append(columns, actualName)
			continue
		}
		unmatched = append(unmatched, name)
	}
	return indexes, columns, unmatched
}

// alignNames 将名称替换为表中的实际拼写，不存在的保持原样
func alignNames(names, actual []string) []string {
	lookup := make(map[string]string, len(actual))
	for _, name := range actual {
		lookup[strings.ToLower(name)] = name
	}
	out := make([]string, len(names))
	for i, n := range names {
		if actualName, ok := lookup[strings.ToLower(n)]; ok {
			out[i] = actualName
		} else {
			out[i] = n
		}
	}
	return out
}

func nonKeyColumns(columns, keys []string) []string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[strings.ToLower(k)] = true
	}
	var out []string
	for _, c := range columns {
		if !isKey[strings.ToLower(c)] {
			out = append(out, c)
		}
	}
	return out
}
