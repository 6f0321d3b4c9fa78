package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// ErrFunctionNotFound 数据源函数未注册（对外导出）
var ErrFunctionNotFound = errors.New("source function not found")

// FetchFunc 数据源函数签名（对外导出）
// ctx取消或超时后函数应尽快返回
type FetchFunc func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error)

// ParamSpec 数据源参数说明（对外导出）
type ParamSpec struct {
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"` // string/int/float/bool/date
	Required    bool        `json:"required" yaml:"required"`
	Default     interface{} `json:"default,omitempty" yaml:"default"`
	Description string      `json:"description,omitempty" yaml:"description"`
}

// Descriptor 数据源元信息（对外导出）
type Descriptor struct {
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	Parameters  []ParamSpec `json:"parameters,omitempty"`
}

type entry struct {
	desc Descriptor
	fn   FetchFunc
}

// Registry 数据源函数注册表（对外导出）
// 并发安全
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry 创建注册表（对外导出）
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register 注册数据源函数（对外导出）
// Category为空时根据名称前缀推断，重复注册返回错误
func (r *Registry) Register(desc Descriptor, fn FetchFunc) error {
	desc.Name = strings.TrimSpace(desc.Name)
	if desc.Name == "" {
		return fmt.Errorf("数据源名称不能为空")
	}
	if fn == nil {
		return fmt.Errorf("数据源 %s 的函数不能为空", desc.Name)
	}
	if desc.Category == "" {
		desc.Category = InferCategory(desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[desc.Name]; exists {
		return fmt.Errorf("数据源 %s 已注册", desc.Name)
	}
	r.entries[desc.Name] = &entry{desc: desc, fn: fn}
	return nil
}

// RegisterFunc 仅以名称注册数据源函数（对外导出）
func (r *Registry) RegisterFunc(name string, fn FetchFunc) error {
	return r.Register(Descriptor{Name: name}, fn)
}

// Lookup 查找数据源函数，不存在时返回ErrFunctionNotFound（对外导出）
func (r *Registry) Lookup(name string) (FetchFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	return e.fn, nil
}

// Describe 返回数据源元信息
func (r *Registry) Describe(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

// List 按名称排序返回数据源元信息，category为空时返回全部（对外导出）
func (r *Registry) List(category string) []Descriptor {
	r.mu.RLock()
	out := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		if category != "" && e.desc.Category != category {
			continue
		}
		out = append(out, e.desc)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len 已注册数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
