package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// DefaultTablePrefix 自动生成表名的默认前缀
const DefaultTablePrefix = "ak_"

// maxTableNameLength 前缀之外的表名最大长度
const maxTableNameLength = 60

var (
	separatorChars     = regexp.MustCompile(`[.\-\s]+`)
	nonIdentifierChars = regexp.MustCompile(`[^a-z0-9_]+`)
)

// TableName 由数据源名称生成安全表名（对外导出）
// 转小写，点、横线和空白替换为下划线，去除其余非法字符，
// 数字开头时补"t_"，截断到60个字符后加前缀
func TableName(source, prefix string) string {
	name := strings.ToLower(strings.TrimSpace(source))
	name = separatorChars.ReplaceAllString(name, "_")
	name = nonIdentifierChars.ReplaceAllString(name, "")
	if name == "" {
		name = "unnamed"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	if len(name) > maxTableNameLength {
		name = name[:maxTableNameLength]
	}
	return prefix + name
}

// TableExists 判断表是否存在（对外导出）
func (p *ConnectionPool) TableExists(ctx context.Context, table string) (bool, error) {
	name, err := ValidateIdentifier(table)
	if err != nil {
		return false, err
	}
	return p.dialect.TableExists(ctx, p.db, name)
}

// RowCount 统计表行数，表不存在时返回0（对外导出）
func (p *ConnectionPool) RowCount(ctx context.Context, table string) (int64, error) {
	name, err := ValidateIdentifier(table)
	if err != nil {
		return 0, err
	}
	exists, err := p.dialect.TableExists(ctx, p.db, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", p.dialect.QuoteIdentifier(name))
	if err := p.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("统计表 %s 行数失败: %w", name, err)
	}
	return count, nil
}

// TableColumns 返回表的实际列名（对外导出）
func (p *ConnectionPool) TableColumns(ctx context.Context, table string) ([]string, error) {
	name, err := ValidateIdentifier(table)
	if err != nil {
		return nil, err
	}
	return p.dialect.ListColumns(ctx, p.db, name)
}
