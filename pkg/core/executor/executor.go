package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/LENAX/akshare-warehouse/pkg/core/cache"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

const (
	// DefaultTimeout 未指定超时时的默认值
	DefaultTimeout = 120 * time.Second
	// defaultMaxWorkers 默认最大并发调用数
	defaultMaxWorkers = 10
	maxGlobalWorkers  = 1000
)

// Executor 有界远程调用执行器（对外导出）
// 每次调用在独立协程中执行，调用方最多等待超时时长
type Executor struct {
	registry       *source.Registry
	workerPool     chan struct{}
	defaultTimeout time.Duration
	cache          cache.ResultCache
	cacheTTL       time.Duration
}

// Option 执行器选项（对外导出）
type Option func(*Executor)

// WithMaxWorkers 设置最大并发调用数
func WithMaxWorkers(n int) Option {
	return func(e *Executor) {
		if n > maxGlobalWorkers {
			n = maxGlobalWorkers
		}
		if n > 0 {
			e.workerPool = make(chan struct{}, n)
		}
	}
}

// WithDefaultTimeout 设置默认超时
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.defaultTimeout = d
		}
	}
}

// WithCache 启用结果缓存，键为函数名和参数
func WithCache(c cache.ResultCache, ttl time.Duration) Option {
	return func(e *Executor) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// NewExecutor 创建执行器实例（对外导出）
func NewExecutor(registry *source.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry:       registry,
		workerPool:     make(chan struct{}, defaultMaxWorkers),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry 返回数据源注册表
func (e *Executor) Registry() *source.Registry {
	return e.registry
}

// Running 当前占用的工作协程数
func (e *Executor) Running() int {
	return len(e.workerPool)
}

type callResult struct {
	result *tabular.Result
	err    error
}

// Call 调用指定数据源函数（对外导出）
// 函数不存在时同步返回source.ErrFunctionNotFound，其余情况都通过Outcome返回
// timeout<=0时使用默认超时；超时后工作协程的context被取消，迟到的结果被丢弃
func (e *Executor) Call(ctx context.Context, name string, params map[string]interface{}, timeout time.Duration) (Outcome, error) {
	fn, err := e.registry.Lookup(name)
	if err != nil {
		return Outcome{}, err
	}
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	key := ""
	if e.cache != nil {
		key = cache.Key(name, params)
		if v, ok := e.cache.Get(key); ok {
			if res, ok := v.(*tabular.Result); ok {
				return Outcome{Status: StatusSuccess, Result: res, Cached: true}, nil
			}
		}
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(source.WithSourceName(ctx, name), timeout)
	defer cancel()

	// 等待工作协程名额也计入超时
	select {
	case e.workerPool <- struct{}{}:
	case <-callCtx.Done():
		return e.doneOutcome(ctx, name, timeout, start), nil
	}

	resultCh := make(chan callResult, 1)
	go func() {
		defer func() { <-e.workerPool }()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ [远程调用] %s panic: %v\n%s", name, r, debug.Stack())
				resultCh <- callResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := fn(callCtx, params)
		resultCh <- callResult{result: res, err: err}
	}()

	select {
	case r := <-resultCh:
		duration := time.Since(start)
		if r.err != nil {
			log.Printf("❌ [远程调用] %s 失败, 耗时=%v, 错误=%v", name, duration, r.err)
			return Outcome{Status: StatusError, Message: r.err.Error(), Err: r.err, Duration: duration}, nil
		}
		if r.result == nil {
			r.result = tabular.MustNew()
		}
		log.Printf("✅ [远程调用] %s 成功, 耗时=%v, 行数=%d", name, duration, r.result.NumRows())
		if key != "" {
			_ = e.cache.Set(key, r.result, e.cacheTTL)
		}
		return Outcome{Status: StatusSuccess, Result: r.result, Duration: duration}, nil
	case <-callCtx.Done():
		return e.doneOutcome(ctx, name, timeout, start), nil
	}
}

// doneOutcome 区分超时与调用方取消
func (e *Executor) doneOutcome(parent context.Context, name string, timeout time.Duration, start time.Time) Outcome {
	duration := time.Since(start)
	if err := parent.Err(); errors.Is(err, context.Canceled) {
		log.Printf("⚠️ [远程调用] %s 被取消, 耗时=%v", name, duration)
		return Outcome{Status: StatusError, Message: err.Error(), Err: err, Duration: duration}
	}
	log.Printf("⏱️ [远程调用] %s 超时, 超时时间=%v", name, timeout)
	return Outcome{
		Status:   StatusTimeout,
		Message:  fmt.Sprintf("调用超时（%v）", timeout),
		Duration: duration,
	}
}
