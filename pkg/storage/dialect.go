package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// Dialect SQL方言接口（对外导出）
// 封装不同数据库的SQL语法差异，所有标识符在进入方言前已通过ValidateIdentifier校验
type Dialect interface {
	// Name 返回方言名称（如 "sqlite", "mysql", "postgres"）
	Name() string

	// DriverName 返回database/sql驱动名
	DriverName() string

	// NormalizeDSN 补全DSN中必需的参数
	// MySQL: parseTime=true, charset=utf8mb4
	NormalizeDSN(dsn string) (string, error)

	// Placeholder 返回指定位置的占位符（index从1开始）
	// SQLite/MySQL: ? (忽略index)
	// PostgreSQL: $1, $2, ...
	Placeholder(index int) string

	// QuoteIdentifier 引用标识符
	// MySQL: `name`
	// SQLite/PostgreSQL: "name"
	QuoteIdentifier(name string) string

	// ColumnType 返回数据类型对应的列类型
	ColumnType(kind tabular.Kind) string

	// KeyType 返回可作为主键的短字符串类型
	// MySQL/PostgreSQL: VARCHAR(64)
	// SQLite: TEXT
	KeyType() string

	// CreateTableSQL 返回 CREATE TABLE IF NOT EXISTS 语句
	CreateTableSQL(schema *TableSchema) string

	// InsertSQL 返回指定写入模式的插入语句
	// updateColumns仅在ModeUpsert下使用，且不含uniqueKeys
	InsertSQL(table string, columns []string, mode WriteMode, uniqueKeys, updateColumns []string) string

	// TableExists 判断表是否存在
	TableExists(ctx context.Context, q sqlx.QueryerContext, table string) (bool, error)

	// ListColumns 按定义顺序返回表的实际列名
	ListColumns(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error)

	// ClassifyError 将驱动错误归类
	ClassifyError(err error) FailureReason

	// ConfigureDB 配置数据库连接（如SQLite的PRAGMA）
	// 返回需要执行的SQL语句列表
	ConfigureDB() []string
}

// QuotedList 引用并以逗号连接标识符列表（对外导出）
func QuotedList(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// PlaceholderList 返回n个占位符（对外导出）
func PlaceholderList(d Dialect, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.Placeholder(i + 1)
	}
	return strings.Join(ph, ", ")
}

// Rebind 将?占位符转换为方言的绑定形式（对外导出）
func Rebind(d Dialect, query string) string {
	return sqlx.Rebind(sqlx.BindType(d.DriverName()), query)
}

// BuildCreateTable 构造通用的建表语句，suffix追加在右括号之后（对外导出）
func BuildCreateTable(d Dialect, schema *TableSchema, suffix string) string {
	defs := make([]string, 0, len(schema.Columns)+1)
	for _, col := range schema.Columns {
		def := d.QuoteIdentifier(col.Name) + " " + col.SQLType
		if col.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if len(schema.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", QuotedList(d, schema.PrimaryKey)))
	}
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteIdentifier(schema.Name), strings.Join(defs, ", "))
	if suffix != "" {
		sql += " " + suffix
	}
	return sql
}

// ScanColumnNames 执行列查询并取出第idx列作为列名（对外导出）
func ScanColumnNames(ctx context.Context, q sqlx.QueryerContext, idx int, query string, args ...interface{}) ([]string, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询列信息失败: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("读取列信息失败: %w", err)
		}
		if idx >= len(values) {
			return nil, fmt.Errorf("列信息只有%d个字段", len(values))
		}
		switch v := values[idx].(type) {
		case string:
			names = append(names, v)
		case []byte:
			names = append(names, string(v))
		default:
			names = append(names, fmt.Sprint(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历列信息失败: %w", err)
	}
	return names, nil
}
