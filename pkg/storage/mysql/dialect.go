package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	driver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// MySQL错误码
const (
	errDupEntry          = 1062
	errNoReferencedRow   = 1452
	errRowIsReferenced   = 1451
	errBadNull           = 1048
	errBadField          = 1054
	errNoSuchTable       = 1146
	errTruncatedValue    = 1366
	errDataTooLong       = 1406
	errWrongValueCount   = 1136
	errLockWaitTimeout   = 1205
	errTooManyConnection = 1040
)

// MySQLDialect MySQL方言实现（对外导出）
type MySQLDialect struct{}

// NewMySQLDialect 创建MySQL方言实例
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

// Name 返回方言名称
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// DriverName 返回驱动名称
func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// NormalizeDSN 解析DSN并补全parseTime与utf8mb4字符集
func (d *MySQLDialect) NormalizeDSN(dsn string) (string, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	// 驱动在每个新连接上执行SET，连接池中的所有连接都使用严格模式
	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}
	if _, ok := cfg.Params["sql_mode"]; !ok {
		cfg.Params["sql_mode"] = "'" + strictSQLMode + "'"
	}
	out := cfg.FormatDSN()
	if !strings.Contains(dsn, "charset=") {
		sep := "?"
		if strings.Contains(out, "?") {
			sep = "&"
		}
		out += sep + "charset=utf8mb4"
	}
	return out, nil
}

// Placeholder 返回占位符（MySQL使用?）
func (d *MySQLDialect) Placeholder(index int) string {
	return "?"
}

// QuoteIdentifier 使用反引号引用标识符
func (d *MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// ColumnType 返回MySQL列类型
func (d *MySQLDialect) ColumnType(kind tabular.Kind) string {
	switch kind {
	case tabular.KindInt:
		return "BIGINT"
	case tabular.KindFloat:
		return "DOUBLE"
	case tabular.KindBool:
		return "TINYINT(1)"
	case tabular.KindTime:
		return "DATETIME"
	case tabular.KindDecimal:
		return "DECIMAL(38,10)"
	default:
		return "LONGTEXT"
	}
}

// KeyType 返回MySQL主键字符串类型
func (d *MySQLDialect) KeyType() string {
	return "VARCHAR(64)"
}

// CreateTableSQL 返回MySQL建表语句
func (d *MySQLDialect) CreateTableSQL(schema *storage.TableSchema) string {
	return storage.BuildCreateTable(d, schema, "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
}

// InsertSQL 返回MySQL插入语句
// 忽略冲突使用INSERT IGNORE，覆盖使用ON DUPLICATE KEY UPDATE
func (d *MySQLDialect) InsertSQL(table string, columns []string, mode storage.WriteMode, uniqueKeys, updateColumns []string) string {
	verb := "INSERT INTO"
	if mode == storage.ModeIgnoreDuplicates {
		verb = "INSERT IGNORE INTO"
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
			updateParts[i] = fmt.Sprintf("%s = VALUES(%s)", q, q)
		}
		sql += " ON DUPLICATE KEY UPDATE " + strings.Join(updateParts, ", ")
	}
	return sql
}

// TableExists 在当前库的information_schema中查找表
func (d *MySQLDialect) TableExists(ctx context.Context, q sqlx.QueryerContext, table string) (bool, error) {
	var count int
	err := q.QueryRowxContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		table,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("查询表 %s 是否存在失败: %w", table, err)
	}
	return count > 0, nil
}

// ListColumns 通过SHOW COLUMNS读取列名（Field为第一列）
func (d *MySQLDialect) ListColumns(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	return storage.ScanColumnNames(ctx, q, 0, "SHOW COLUMNS FROM "+d.QuoteIdentifier(table))
}

// ClassifyError 根据MySQL错误码归类
func (d *MySQLDialect) ClassifyError(err error) storage.FailureReason {
	if errors.Is(err, driver.ErrInvalidConn) {
		return storage.ReasonConnection
	}
	var myErr *driver.MySQLError
	if !errors.As(err, &myErr) {
		return storage.ReasonUnknown
	}
	switch myErr.Number {
	case errDupEntry, errNoReferencedRow, errRowIsReferenced, errBadNull:
		return storage.ReasonConstraint
	case errBadField, errNoSuchTable, errTruncatedValue, errDataTooLong, errWrongValueCount:
		return storage.ReasonSchema
	case errLockWaitTimeout, errTooManyConnection:
		return storage.ReasonConnection
	default:
		return storage.ReasonUnknown
	}
}

// strictSQLMode 写入超长或非法值时报错而不是截断
const strictSQLMode = "STRICT_TRANS_TABLES,NO_ZERO_IN_DATE,NO_ZERO_DATE,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION"

// ConfigureDB MySQL的会话设置通过DSN参数下发，这里无需额外语句
func (d *MySQLDialect) ConfigureDB() []string {
	return nil
}

// 确保实现接口
var _ storage.Dialect = (*MySQLDialect)(nil)
