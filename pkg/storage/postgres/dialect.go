package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// PostgresDialect PostgreSQL方言实现（对外导出）
type PostgresDialect struct{}

// NewPostgresDialect 创建PostgreSQL方言实例
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

// Name 返回方言名称
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// DriverName 返回驱动名称
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// NormalizeDSN 校验DSN格式，URL形式转换为键值形式
func (d *PostgresDialect) NormalizeDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return pq.ParseURL(dsn)
	}
	return dsn, nil
}

// Placeholder 返回占位符（PostgreSQL使用$1, $2, ...）
func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// QuoteIdentifier 使用pq的标识符引用
func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// ColumnType 返回PostgreSQL列类型
func (d *PostgresDialect) ColumnType(kind tabular.Kind) string {
	switch kind {
	case tabular.KindInt:
		return "BIGINT"
	case tabular.KindFloat:
		return "DOUBLE PRECISION"
	case tabular.KindBool:
		return "BOOLEAN"
	case tabular.KindTime:
		return "TIMESTAMP"
	case tabular.KindDecimal:
		return "NUMERIC(38,10)"
	default:
		return "TEXT"
	}
}

// KeyType 返回PostgreSQL主键字符串类型
func (d *PostgresDialect) KeyType() string {
	return "VARCHAR(64)"
}

// CreateTableSQL 返回PostgreSQL建表语句
func (d *PostgresDialect) CreateTableSQL(schema *storage.TableSchema) string {
	return storage.BuildCreateTable(d, schema, "")
}

// InsertSQL 返回PostgreSQL插入语句
// 忽略冲突使用ON CONFLICT DO NOTHING，覆盖使用ON CONFLICT DO UPDATE
func (d *PostgresDialect) InsertSQL(table string, columns []string, mode storage.WriteMode, uniqueKeys, updateColumns []string) string {
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdentifier(table),
		storage.QuotedList(d, columns),
		storage.PlaceholderList(d, len(columns)),
	)
	switch {
	case mode == storage.ModeIgnoreDuplicates:
		sql += " ON CONFLICT DO NOTHING"
	case mode == storage.ModeUpsert && len(updateColumns) > 0:
		updateParts := make([]string, len(updateColumns))
		for i, col := range updateColumns {
			q := d.QuoteIdentifier(col)
			updateParts[i] = fmt.Sprintf("%s = EXCLUDED.%s", q, q)
		}
		sql += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
			storage.QuotedList(d, uniqueKeys), strings.Join(updateParts, ", "))
	}
	return sql
}

// TableExists 在当前schema中查找表
func (d *PostgresDialect) TableExists(ctx context.Context, q sqlx.QueryerContext, table string) (bool, error) {
	var count int
	err := q.QueryRowxContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1",
		table,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("查询表 %s 是否存在失败: %w", table, err)
	}
	return count > 0, nil
}

// ListColumns 从information_schema读取列名
func (d *PostgresDialect) ListColumns(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	return storage.ScanColumnNames(ctx, q, 0,
		"SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position",
		table,
	)
}

// ClassifyError 根据SQLSTATE错误类归类
func (d *PostgresDialect) ClassifyError(err error) storage.FailureReason {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return storage.ReasonUnknown
	}
	switch pqErr.Code.Class() {
	case "23":
		return storage.ReasonConstraint
	case "42", "22":
		return storage.ReasonSchema
	case "08", "53", "57":
		return storage.ReasonConnection
	default:
		return storage.ReasonUnknown
	}
}

// ConfigureDB 返回PostgreSQL配置SQL
func (d *PostgresDialect) ConfigureDB() []string {
	return []string{
		"SET timezone = 'UTC';",
	}
}

// 确保实现接口
var _ storage.Dialect = (*PostgresDialect)(nil)
