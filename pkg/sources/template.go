// Package sources 声明式HTTP数据源：HTML表格和JSON记录
package sources

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// FormatValue 将参数值转换为字符串
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ReplacePlaceholders 替换字符串中所有${name}占位符（对外导出）
// 返回替换后的字符串和未找到参数的占位符名称
func ReplacePlaceholders(value string, params map[string]interface{}) (string, []string) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(value, func(m string) string {
		name := m[2 : len(m)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return FormatValue(v)
	})
	return out, missing
}

// ReplaceParamsInMap 替换map中的占位符，返回新的map（对外导出）
// 有未替换的占位符时返回错误
func ReplaceParamsInMap(values map[string]string, params map[string]interface{}) (map[string]string, error) {
	out := make(map[string]string, len(values))
	var unreplaced []string
	for key, value := range values {
		replaced, missing := ReplacePlaceholders(value, params)
		out[key] = replaced
		unreplaced = append(unreplaced, missing...)
	}
	if len(unreplaced) > 0 {
		sort.Strings(unreplaced)
		return out, fmt.Errorf("以下占位符未找到对应的参数值: %v", unreplaced)
	}
	return out, nil
}

// Placeholders 返回模板中出现的占位符名称（去重，按出现顺序）
func Placeholders(values ...string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, m := range placeholderPattern.FindAllStringSubmatch(v, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	return names
}

// isBlankCell 空单元格和常见的缺失值占位
func isBlankCell(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "--", "nan", "null", "none", "n/a":
		return true
	}
	return false
}
