package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/LENAX/akshare-warehouse/pkg/core/source"
)

// Endpoint HTTP数据源的请求描述（对外导出）
// URL、Query和Headers中的${name}由调用参数替换
type Endpoint struct {
	URL      string
	Query    map[string]string
	Headers  map[string]string
	Encoding string
	Params   []source.ParamSpec
}

// resolveParams 合并默认值并检查必填参数
func (e Endpoint) resolveParams(params map[string]interface{}) (map[string]interface{}, error) {
	merged := make(map[string]interface{}, len(params)+len(e.Params))
	for _, p := range e.Params {
		if p.Default != nil {
			merged[p.Name] = p.Default
		}
	}
	for k, v := range params {
		merged[k] = v
	}
	var missing []string
	for _, p := range e.Params {
		if !p.Required {
			continue
		}
		if v, ok := merged[p.Name]; !ok || strings.TrimSpace(FormatValue(v)) == "" {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("缺少必填参数: %v", missing)
	}
	return merged, nil
}

// fetch 替换模板后请求并返回解码后的内容
func (e Endpoint) fetch(ctx context.Context, client *Client, params map[string]interface{}) ([]byte, error) {
	merged, err := e.resolveParams(params)
	if err != nil {
		return nil, err
	}
	rawURL, missing := ReplacePlaceholders(e.URL, merged)
	if len(missing) > 0 {
		return nil, fmt.Errorf("URL中以下占位符未找到对应的参数值: %v", missing)
	}
	query, err := ReplaceParamsInMap(e.Query, merged)
	if err != nil {
		return nil, err
	}
	headers, err := ReplaceParamsInMap(e.Headers, merged)
	if err != nil {
		return nil, err
	}
	return client.Get(ctx, rawURL, query, headers, e.Encoding)
}
