package sources

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

var (
	intPattern      = regexp.MustCompile(`^[+-]?(0|[1-9][0-9]*)$`)
	floatPattern    = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
	compactDate     = regexp.MustCompile(`^(19|20)[0-9]{6}$`)
	dateNameHints   = []string{"date", "日期", "time", "时间"}
	dateTimeLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"2006-01-02 15:04:05",
		"2006/01/02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
)

// ParseTime 按常见日期格式解析
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func hasDateHint(name string) bool {
	lower := strings.ToLower(name)
	for _, h := range dateNameHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// cleanNumber 去除千分位逗号
func cleanNumber(s string) string {
	if strings.Contains(s, ",") && !strings.HasPrefix(s, ",") {
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

// ColumnFromStrings 将文本单元格转换为类型化的列（对外导出）
// 整列满足同一格式时才转换：整数、浮点、布尔、日期，否则保留文本
// 带前导零的数字（如股票代码000001）保留文本；yyyymmdd仅在列名包含日期提示时识别为日期
func ColumnFromStrings(name string, raw []string) *tabular.Column {
	values := make([]interface{}, len(raw))
	cells := make([]string, len(raw))
	present := 0
	for i, s := range raw {
		cells[i] = strings.TrimSpace(s)
		if !isBlankCell(cells[i]) {
			present++
		}
	}
	if present == 0 {
		return &tabular.Column{Name: name, Kind: tabular.KindText, Values: values}
	}

	convert := func(parse func(string) (interface{}, bool)) bool {
		out := make([]interface{}, len(cells))
		for i, s := range cells {
			if isBlankCell(s) {
				continue
			}
			v, ok := parse(s)
			if !ok {
				return false
			}
			out[i] = v
		}
		copy(values, out)
		return true
	}

	switch {
	case convert(func(s string) (interface{}, bool) {
		if intPattern.MatchString(cleanNumber(s)) && !(hasDateHint(name) && compactDate.MatchString(s)) {
			n, err := strconv.ParseInt(cleanNumber(s), 10, 64)
			return n, err == nil
		}
		return nil, false
	}):
		return &tabular.Column{Name: name, Kind: tabular.KindInt, Values: values}
	case convert(func(s string) (interface{}, bool) {
		if hasDateHint(name) && compactDate.MatchString(s) {
			return nil, false
		}
		s = strings.TrimSuffix(cleanNumber(s), "%")
		if !floatPattern.MatchString(s) || hasLeadingZero(s) {
			return nil, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}):
		return &tabular.Column{Name: name, Kind: tabular.KindFloat, Values: values}
	case convert(func(s string) (interface{}, bool) {
		switch strings.ToLower(s) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return nil, false
	}):
		return &tabular.Column{Name: name, Kind: tabular.KindBool, Values: values}
	case convert(func(s string) (interface{}, bool) {
		if hasDateHint(name) && compactDate.MatchString(s) {
			t, err := time.ParseInLocation("20060102", s, time.Local)
			return t, err == nil
		}
		return ParseTime(s)
	}):
		return &tabular.Column{Name: name, Kind: tabular.KindTime, Values: values}
	}

	for i, s := range cells {
		if isBlankCell(s) {
			values[i] = nil
		} else {
			values[i] = s
		}
	}
	return &tabular.Column{Name: name, Kind: tabular.KindText, Values: values}
}

// hasLeadingZero 形如"000001"或"01.5"的数字视为代码
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

// ResultFromStrings 由表头和文本行构造表格结果（对外导出）
// 短行补空，长行截断
func ResultFromStrings(header []string, rows [][]string) (*tabular.Result, error) {
	columns := make([]*tabular.Column, len(header))
	for c, name := range header {
		raw := make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				raw[r] = row[c]
			}
		}
		columns[c] = ColumnFromStrings(name, raw)
	}
	return tabular.New(columns...)
}
