package storage

import (
	"fmt"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// ColumnSchema 列定义（对外导出）
type ColumnSchema struct {
	Name    string
	Kind    tabular.Kind
	SQLType string
	NotNull bool
}

// TableSchema 表定义（对外导出）
type TableSchema struct {
	Name       string
	Columns    []ColumnSchema
	PrimaryKey []string
}

// InferSchema 根据表格结果推断表结构（对外导出）
// 列名按原样使用（调用方负责先行清理），类型映射由方言决定，不会因为类型失败
func InferSchema(table string, result *tabular.Result, d Dialect) (*TableSchema, error) {
	name, err := ValidateIdentifier(table)
	if err != nil {
		return nil, err
	}
	schema := &TableSchema{Name: name}
	for _, col := range result.Columns() {
		colName, err := ValidateIdentifier(col.Name)
		if err != nil {
			return nil, fmt.Errorf("列 %q: %w", col.Name, err)
		}
		schema.Columns = append(schema.Columns, ColumnSchema{
			Name:    colName,
			Kind:    col.Kind,
			SQLType: d.ColumnType(col.Kind),
		})
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("表 %s 没有可用的列", name)
	}
	return schema, nil
}
