package tabular

import (
	"strings"
)

// DroppedColumn 规范化时被丢弃的列及原因（对外导出）
type DroppedColumn struct {
	Name   string
	Reason string
}

// IsBlankName 判断列名是否无效：空、仅空白或字面量"nan"（大小写不敏感）（对外导出）
func IsBlankName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed == "" || strings.EqualFold(trimmed, "nan")
}

// Normalize 清理列名（对外导出）
// 去除首尾空白，丢弃无效列名和大小写不敏感的重复列（保留首次出现）
// keep可进一步过滤列名，返回false的列被丢弃并记录reason
func (r *Result) Normalize(keep func(name string) (bool, string)) (*Result, []DroppedColumn) {
	if r == nil {
		return nil, nil
	}
	var (
		indexes []int
		names   []string
		dropped []DroppedColumn
	)
	seen := make(map[string]bool, len(r.columns))
	for i, col := range r.columns {
		name := strings.TrimSpace(col.Name)
		if IsBlankName(name) {
			if name == "" {
				name = "<empty>"
			}
			dropped = append(dropped, DroppedColumn{Name: name, Reason: "blank"})
			continue
		}
		if keep != nil {
			if ok, reason := keep(name); !ok {
				dropped = append(dropped, DroppedColumn{Name: name, Reason: reason})
				continue
			}
		}
		key := strings.ToLower(name)
		if seen[key] {
			dropped = append(dropped, DroppedColumn{Name: name, Reason: "duplicate"})
			continue
		}
		seen[key] = true
		indexes = append(indexes, i)
		names = append(names, name)
	}
	return r.Select(indexes, names), dropped
}
