package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// JSONSource 抓取JSON接口中的记录数组（对外导出）
type JSONSource struct {
	Endpoint
	RecordsPath string            // 记录数组所在路径，如"data.diff"，为空表示根节点
	Fields      []string          // 列顺序；记录为数组或分隔字符串时作为表头
	Delimiter   string            // 记录为字符串时的分隔符，默认逗号
	Renames     map[string]string // 列重命名
	client      *Client
}

// NewJSONSource 创建JSON数据源（对外导出）
func NewJSONSource(ep Endpoint, client *Client) *JSONSource {
	return &JSONSource{Endpoint: ep, client: client}
}

// Fetch 实现source.FetchFunc
func (s *JSONSource) Fetch(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
	body, err := s.fetch(ctx, s.client, params)
	if err != nil {
		return nil, err
	}
	return s.Parse(body)
}

// Parse 解析JSON内容中的记录
func (s *JSONSource) Parse(body []byte) (*tabular.Result, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(stripJSONP(body))))
	dec.UseNumber()
	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}

	node, err := lookupPath(root, s.RecordsPath)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return tabular.MustNew(), nil
	}
	records, ok := node.([]interface{})
	if !ok {
		return nil, fmt.Errorf("路径 %q 不是数组", s.RecordsPath)
	}
	if len(records) == 0 {
		return tabular.MustNew(), nil
	}

	var res *tabular.Result
	switch records[0].(type) {
	case []interface{}:
		res, err = s.fromArrays(records)
	case string:
		res, err = s.fromDelimited(records)
	default:
		res, err = s.fromObjects(records)
	}
	if err != nil {
		return nil, err
	}
	return res.Rename(s.Renames), nil
}

func (s *JSONSource) fromObjects(records []interface{}) (*tabular.Result, error) {
	fields := s.Fields
	if len(fields) == 0 {
		seen := make(map[string]bool)
		for _, r := range records {
			obj, _ := r.(map[string]interface{})
			for k := range obj {
				if !seen[k] {
					seen[k] = true
					fields = append(fields, k)
				}
			}
		}
		sort.Strings(fields)
	}

	rows := make([][]interface{}, 0, len(records))
	for i, r := range records {
		obj, ok := r.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("第%d条记录不是对象", i)
		}
		row := make([]interface{}, len(fields))
		for c, f := range fields {
			row[c] = jsonValue(obj[f])
		}
		rows = append(rows, row)
	}
	return tabular.FromRecords(fields, rows)
}

func (s *JSONSource) fromArrays(records []interface{}) (*tabular.Result, error) {
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("记录为数组时必须配置fields")
	}
	rows := make([][]interface{}, 0, len(records))
	for i, r := range records {
		arr, ok := r.([]interface{})
		if !ok {
			return nil, fmt.Errorf("第%d条记录不是数组", i)
		}
		row := make([]interface{}, len(s.Fields))
		for c := range s.Fields {
			if c < len(arr) {
				row[c] = jsonValue(arr[c])
			}
		}
		rows = append(rows, row)
	}
	return tabular.FromRecords(s.Fields, rows)
}

// fromDelimited 解析"2024-01-02,8.20,8.25"形式的记录，值按列推断类型
func (s *JSONSource) fromDelimited(records []interface{}) (*tabular.Result, error) {
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("记录为字符串时必须配置fields")
	}
	sep := s.Delimiter
	if sep == "" {
		sep = ","
	}
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		line, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("第%d条记录不是字符串", i)
		}
		parts := strings.Split(line, sep)
		if len(parts) > len(s.Fields) {
			parts = parts[:len(s.Fields)]
		}
		rows = append(rows, parts)
	}
	return ResultFromStrings(s.Fields, rows)
}

// jsonValue 将JSON值转换为表格值
func jsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case string:
		if isBlankCell(x) {
			return nil
		}
		return x
	case map[string]interface{}, []interface{}:
		b, _ := json.Marshal(x)
		return string(b)
	default:
		return x
	}
}

// lookupPath 按点分路径查找节点
func lookupPath(root interface{}, path string) (interface{}, error) {
	node := root
	if strings.TrimSpace(path) == "" {
		return node, nil
	}
	for _, key := range strings.Split(path, ".") {
		if node == nil {
			return nil, nil
		}
		obj, ok := node.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("路径 %q 在 %q 处不是对象", path, key)
		}
		node = obj[key]
	}
	return node, nil
}

// stripJSONP 去掉形如 callback({...}); 的包装
func stripJSONP(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	open := bytes.IndexByte(trimmed, '(')
	end := bytes.LastIndexByte(trimmed, ')')
	if open < 0 || end <= open {
		return trimmed
	}
	return trimmed[open+1 : end]
}
