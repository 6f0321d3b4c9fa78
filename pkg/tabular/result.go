package tabular

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind 列的语义类型（对外导出）
type Kind int

const (
	KindUnknown Kind = iota // 未知或混合类型，落库为文本
	KindInt                 // 64位整数
	KindFloat               // 64位浮点
	KindBool                // 布尔
	KindText                // 文本
	KindTime                // 日期/时间
	KindDecimal             // 任意精度小数
)

// String 返回类型名称
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	case KindDecimal:
		return "decimal"
	default:
		return "unknown"
	}
}

// Column 一列数据（对外导出）
// Values中的nil表示缺失值
type Column struct {
	Name   string
	Kind   Kind
	Values []interface{}
}

// NewColumn 创建列，Kind根据值自动推断（对外导出）
func NewColumn(name string, values ...interface{}) *Column {
	return &Column{
		Name:   name,
		Kind:   InferKind(values),
		Values: values,
	}
}

// Result 数据源返回的表格结果（对外导出）
// 所有列长度一致
type Result struct {
	columns []*Column
	rows    int
}

// New 由列创建表格结果（对外导出）
// 列长度不一致时返回错误；Kind为KindUnknown的列会重新推断
func New(columns ...*Column) (*Result, error) {
	res := &Result{columns: make([]*Column, 0, len(columns))}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("第%d列为空", i)
		}
		if i == 0 {
			res.rows = len(col.Values)
		} else if len(col.Values) != res.rows {
			return nil, fmt.Errorf("列 %q 长度为%d，与首列长度%d不一致", col.Name, len(col.Values), res.rows)
		}
		if col.Kind == KindUnknown {
			col.Kind = InferKind(col.Values)
		}
		res.columns = append(res.columns, col)
	}
	return res, nil
}

// MustNew 同New，出错时panic，便于测试和静态数据构造（对外导出）
func MustNew(columns ...*Column) *Result {
	res, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return res
}

// FromRecords 由按行组织的数据创建表格结果（对外导出）
// 每条记录长度必须与names一致
func FromRecords(names []string, records [][]interface{}) (*Result, error) {
	columns := make([]*Column, len(names))
	for i, name := range names {
		columns[i] = &Column{Name: name, Values: make([]interface{}, 0, len(records))}
	}
	for r, rec := range records {
		if len(rec) != len(names) {
			return nil, fmt.Errorf("第%d行有%d个值，期望%d个", r, len(rec), len(names))
		}
		for i, v := range rec {
			columns[i].Values = append(columns[i].Values, v)
		}
	}
	return New(columns...)
}

// Columns 返回所有列
func (r *Result) Columns() []*Column {
	if r == nil {
		return nil
	}
	return r.columns
}

// Column 根据名称查找列（大小写不敏感）
func (r *Result) Column(name string) (*Column, bool) {
	if r == nil {
		return nil, false
	}
	for _, col := range r.columns {
		if strings.EqualFold(col.Name, name) {
			return col, true
		}
	}
	return nil, false
}

// ColumnNames 返回列名列表
func (r *Result) ColumnNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.columns))
	for i, col := range r.columns {
		names[i] = col.Name
	}
	return names
}

// NumRows 行数
func (r *Result) NumRows() int {
	if r == nil || len(r.columns) == 0 {
		return 0
	}
	return r.rows
}

// NumColumns 列数
func (r *Result) NumColumns() int {
	if r == nil {
		return 0
	}
	return len(r.columns)
}

// IsEmpty 没有行或没有列时为true
func (r *Result) IsEmpty() bool {
	return r.NumRows() == 0 || r.NumColumns() == 0
}

// Value 返回指定行列的值，缺失值（nil、NaN）统一返回nil
func (r *Result) Value(row, col int) interface{} {
	v := r.columns[col].Values[row]
	if IsMissing(v) {
		return nil
	}
	return v
}

// Row 返回一行的值，缺失值为nil
func (r *Result) Row(i int) []interface{} {
	row := make([]interface{}, len(r.columns))
	for c := range r.columns {
		row[c] = r.Value(i, c)
	}
	return row
}

// Rename 按映射重命名列，返回新的Result（对外导出）
// 映射的key大小写不敏感，未出现在映射中的列保持原名
func (r *Result) Rename(mapping map[string]string) *Result {
	if r == nil {
		return nil
	}
	lower := make(map[string]string, len(mapping))
	for k, v := range mapping {
		lower[strings.ToLower(strings.TrimSpace(k))] = v
	}
	out := &Result{columns: make([]*Column, len(r.columns)), rows: r.rows}
	for i, col := range r.columns {
		name := col.Name
		if to, ok := lower[strings.ToLower(strings.TrimSpace(col.Name))]; ok {
			name = to
		}
		out.columns[i] = &Column{Name: name, Kind: col.Kind, Values: col.Values}
	}
	return out
}

// Select 按下标选取列并重命名，返回新的Result（对外导出）
func (r *Result) Select(indexes []int, names []string) *Result {
	out := &Result{columns: make([]*Column, len(indexes)), rows: r.rows}
	for i, idx := range indexes {
		col := r.columns[idx]
		name := col.Name
		if i < len(names) {
			name = names[i]
		}
		out.columns[i] = &Column{Name: name, Kind: col.Kind, Values: col.Values}
	}
	return out
}

// IsMissing 判断值是否为缺失值（nil或NaN）（对外导出）
func IsMissing(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case *string:
		return x == nil
	case *time.Time:
		return x == nil
	}
	return false
}

// KindOf 返回单个值的语义类型（对外导出）
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case bool:
		return KindBool
	case string, []byte:
		return KindText
	case time.Time:
		return KindTime
	case decimal.Decimal:
		return KindDecimal
	default:
		return KindUnknown
	}
}

// InferKind 根据列的非缺失值推断列类型（对外导出）
// 整数与浮点混合推断为浮点，其余混合推断为KindUnknown，全为缺失值时为KindText
func InferKind(values []interface{}) Kind {
	kind := KindUnknown
	seen := false
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		k := KindOf(v)
		if !seen {
			kind, seen = k, true
			continue
		}
		if k == kind {
			continue
		}
		if (k == KindInt && kind == KindFloat) || (k == KindFloat && kind == KindInt) {
			kind = KindFloat
			continue
		}
		return KindUnknown
	}
	if !seen {
		return KindText
	}
	return kind
}
