package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// SQLiteDialect SQLite方言实现（对外导出）
type SQLiteDialect struct{}

// NewSQLiteDialect 创建SQLite方言实例
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

// Name 返回方言名称
func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

// DriverName 返回驱动名称
func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// NormalizeDSN SQLite的DSN即文件路径，原样返回
func (d *SQLiteDialect) NormalizeDSN(dsn string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("SQLite DSN不能为空")
	}
	// 连接级PRAGMA由驱动在每个新连接上设置
	for _, p := range connParams {
		if strings.Contains(dsn, p[0]+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p[0] + "=" + p[1]
	}
	return dsn, nil
}

// connParams go-sqlite3的连接参数
var connParams = [][2]string{
	{"_busy_timeout", "30000"},
	{"_synchronous", "NORMAL"},
}

// Placeholder 返回占位符（SQLite使用?）
func (d *SQLiteDialect) Placeholder(index int) string {
	return "?"
}

// QuoteIdentifier 使用双引号引用标识符
func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnType 返回SQLite列类型
func (d *SQLiteDialect) ColumnType(kind tabular.Kind) string {
	switch kind {
	case tabular.KindInt, tabular.KindBool:
		return "INTEGER"
	case tabular.KindFloat:
		return "REAL"
	case tabular.KindTime:
		return "DATETIME"
	case tabular.KindDecimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

// KeyType 返回SQLite主键字符串类型
func (d *SQLiteDialect) KeyType() string {
	return "TEXT"
}

// CreateTableSQL 返回SQLite建表语句
func (d *SQLiteDialect) CreateTableSQL(schema *storage.TableSchema) string {
	return storage.BuildCreateTable(d, schema, "")
}

// InsertSQL 返回SQLite插入语句
// 忽略冲突使用INSERT OR IGNORE，覆盖使用ON CONFLICT DO UPDATE（3.24+）
func (d *SQLiteDialect) InsertSQL(table string, columns []string, mode storage.WriteMode, uniqueKeys, updateColumns []string) string {
	verb := "INSERT INTO"
	if mode == storage.ModeIgnoreDuplicates {
		verb = "INSERT OR IGNORE INTO"
	}
	sql := fmt.Sprintf("%s %s (%s) VALUES (%s)",
		verb,
		d.QuoteIdentifier(table),
		storage.QuotedList(d, columns),
		storage.PlaceholderList(d, len(columns)),
	)
	if mode == storage.ModeUpsert && len(updateColumns) > 0 {
		updateParts := make([]string, len(updateColumns))
		for i, col := range updateColumns {
			q := d.QuoteIdentifier(col)
			updateParts[i] = fmt.Sprintf("%s = excluded.%s", q, q)
		}
		sql += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
			storage.QuotedList(d, uniqueKeys), strings.Join(updateParts, ", "))
	}
	return sql
}

// TableExists 在sqlite_master中查找表
func (d *SQLiteDialect) TableExists(ctx context.Context, q sqlx.QueryerContext, table string) (bool, error) {
	var count int
	err := q.QueryRowxContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		table,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("查询表 %s 是否存在失败: %w", table, err)
	}
	return count > 0, nil
}

// ListColumns 通过PRAGMA table_info读取列名（name为第二列）
func (d *SQLiteDialect) ListColumns(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	return storage.ScanColumnNames(ctx, q, 1, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdentifier(table)))
}

// ClassifyError 根据SQLite错误码归类
func (d *SQLiteDialect) ClassifyError(err error) storage.FailureReason {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return storage.ReasonUnknown
	}
	switch sqlErr.Code {
	case sqlite3.ErrConstraint:
		return storage.ReasonConstraint
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
		return storage.ReasonConnection
	case sqlite3.ErrMismatch, sqlite3.ErrSchema, sqlite3.ErrRange:
		return storage.ReasonSchema
	case sqlite3.ErrError:
		msg := sqlErr.Error()
		if strings.Contains(msg, "no such table") || strings.Contains(msg, "has no column") {
			return storage.ReasonSchema
		}
	}
	return storage.ReasonUnknown
}

// ConfigureDB 返回SQLite配置SQL
func (d *SQLiteDialect) ConfigureDB() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA wal_autocheckpoint=1000;",
	}
}

// 确保实现接口
var _ storage.Dialect = (*SQLiteDialect)(nil)
