package sources

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LENAX/akshare-warehouse/pkg/config"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
)

// Build 根据配置构造数据源（对外导出）
// client为nil时按数据源的rate_limit创建
func Build(cfg config.SourceConfig, client *Client) (source.Descriptor, source.FetchFunc, error) {
	if client == nil {
		client = NewClient(ClientConfig{Timeout: 60 * time.Second, RateLimit: cfg.RateLimit})
	}
	ep := Endpoint{
		URL:      cfg.URL,
		Query:    cfg.Query,
		Headers:  cfg.Headers,
		Encoding: cfg.Encoding,
		Params:   paramSpecs(cfg),
	}
	desc := source.Descriptor{
		Name:        cfg.Name,
		Category:    cfg.Category,
		Description: cfg.Description,
		Parameters:  ep.Params,
	}

	switch strings.ToLower(cfg.Kind) {
	case "", "html":
		s := NewHTMLTableSource(ep, client)
		if cfg.Selector != "" {
			s.Selector = cfg.Selector
		}
		s.TableIndex = cfg.TableIndex
		s.HeaderRow = cfg.HeaderRow
		s.Renames = cfg.Renames
		return desc, s.Fetch, nil
	case "json":
		s := NewJSONSource(ep, client)
		s.RecordsPath = cfg.RecordsPath
		s.Fields = cfg.Fields
		s.Delimiter = cfg.Delimiter
		s.Renames = cfg.Renames
		return desc, s.Fetch, nil
	default:
		return desc, nil, fmt.Errorf("数据源 %s 的类型 %s 不支持", cfg.Name, cfg.Kind)
	}
}

// paramSpecs 声明的参数加上模板中出现但未声明的参数
func paramSpecs(cfg config.SourceConfig) []source.ParamSpec {
	specs := make([]source.ParamSpec, 0, len(cfg.Params))
	declared := make(map[string]bool, len(cfg.Params))
	for _, p := range cfg.Params {
		spec := source.ParamSpec{
			Name:        p.Name,
			Type:        p.Type,
			Required:    p.Required,
			Description: p.Description,
		}
		if spec.Type == "" {
			spec.Type = "string"
		}
		if p.Default != "" {
			spec.Default = p.Default
		}
		specs = append(specs, spec)
		declared[p.Name] = true
	}

	templates := []string{cfg.URL}
	for _, v := range cfg.Query {
		templates = append(templates, v)
	}
	for _, v := range cfg.Headers {
		templates = append(templates, v)
	}
	for _, name := range Placeholders(templates...) {
		if !declared[name] {
			specs = append(specs, source.ParamSpec{Name: name, Type: "string", Required: true})
			declared[name] = true
		}
	}
	return specs
}

// RegisterAll 将配置中的数据源注册到注册表（对外导出）
// 配置了rate_limit的数据源使用独立的客户端
func RegisterAll(registry *source.Registry, cfgs []config.SourceConfig, client *Client) error {
	for _, cfg := range cfgs {
		c := client
		if cfg.RateLimit > 0 {
			c = nil
		}
		desc, fn, err := Build(cfg, c)
		if err != nil {
			return err
		}
		if err := registry.Register(desc, fn); err != nil {
			return fmt.Errorf("注册数据源 %s 失败: %w", cfg.Name, err)
		}
		log.Printf("✅ [数据源] 已注册 %s (%s, %s)", desc.Name, strings.ToLower(cfg.Kind), cfg.URL)
	}
	return nil
}
