package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/core/events"
	"github.com/LENAX/akshare-warehouse/pkg/core/executor"
	"github.com/LENAX/akshare-warehouse/pkg/core/retry"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

// ErrEngineStopped 引擎已停止，Stop之后不再接受采集（对外导出）
var ErrEngineStopped = errors.New("engine is stopped")

// Deps 引擎依赖（对外导出）
type Deps struct {
	Executor   *executor.Executor
	Pool       *storage.ConnectionPool
	Writer     acquisition.Writer
	Executions storage.ExecutionRepository
	Publisher  events.Publisher // 可选
}

// Option 引擎选项
type Option func(*Engine)

// WithRetryPolicy 设置重试策略，Retryable为nil时使用acquisition.IsRetryable（对外导出）
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Engine) {
		if p.Retryable == nil {
			p.Retryable = acquisition.IsRetryable
		}
		e.policy = p
	}
}

// WithBatchSize 设置默认每批行数（对外导出）
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithTablePrefix 设置未指定表名时派生表名的前缀（对外导出）
func WithTablePrefix(prefix string) Option {
	return func(e *Engine) {
		e.tablePrefix = prefix
	}
}

// Engine 采集引擎（对外导出）
// 负责执行记录、重试、事件发布和定时调度，单次采集交给acquisition.Acquirer
type Engine struct {
	executor    *executor.Executor
	pool        *storage.ConnectionPool
	acquirer    *acquisition.Acquirer
	executions  storage.ExecutionRepository
	publisher   events.Publisher
	policy      retry.Policy
	batchSize   int
	tablePrefix string
	scheduler   *CronScheduler

	running bool
	stopped bool
	mu      sync.RWMutex
	wg      sync.WaitGroup // 进行中的执行
}

// NewEngine 创建采集引擎（对外导出）
func NewEngine(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Executor == nil {
		return nil, errors.New("executor不能为空")
	}
	if deps.Pool == nil {
		return nil, errors.New("connection pool不能为空")
	}
	if deps.Executions == nil {
		return nil, errors.New("execution repository不能为空")
	}
	writer := deps.Writer
	if writer == nil {
		writer = storage.NewBatchWriter(deps.Pool)
	}

	e := &Engine{
		executor:    deps.Executor,
		pool:        deps.Pool,
		acquirer:    acquisition.NewAcquirer(deps.Executor, writer),
		executions:  deps.Executions,
		publisher:   deps.Publisher,
		policy:      retry.Policy{MaxAttempts: 1, Retryable: acquisition.IsRetryable},
		tablePrefix: storage.DefaultTablePrefix,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.acquirer.SetStateHook(logState)
	e.scheduler = NewCronScheduler(e)
	return e, nil
}

func logState(ctx context.Context, req acquisition.Request, st acquisition.State) {
	if st == acquisition.StateIdle || st == acquisition.StateCalling {
		return
	}
	log.Printf("🔁 [采集引擎] 执行 %s: %s 状态 -> %s", source.GetExecutionID(ctx), req.Source, st)
}

// Registry 返回数据源注册表
func (e *Engine) Registry() *source.Registry {
	return e.executor.Registry()
}

// Executions 返回执行记录存储
func (e *Engine) Executions() storage.ExecutionRepository {
	return e.executions
}

// Pool 返回连接池
func (e *Engine) Pool() *storage.ConnectionPool {
	return e.pool
}

// Scheduler 返回定时调度器
func (e *Engine) Scheduler() *CronScheduler {
	return e.scheduler
}

// Start 启动引擎和定时调度器（对外导出）
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}
	if e.running {
		return nil
	}
	if err := e.pool.Ping(ctx); err != nil {
		return fmt.Errorf("数据库不可用: %w", err)
	}
	e.scheduler.Start()
	e.running = true
	log.Println("✅ [采集引擎] 已启动")
	return nil
}

// Stop 停止调度器并等待进行中的执行，之后引擎不再接受采集（对外导出）
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	if !e.running {
		e.mu.Unlock()
		e.wg.Wait()
		return
	}
	e.running = false
	e.mu.Unlock()

	e.scheduler.Stop()
	e.wg.Wait()
	log.Println("✅ [采集引擎] 已停止")
}

// IsRunning 引擎是否已启动
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Run 同步执行一次采集并记录执行结果（对外导出）
// 返回的记录总是非nil（创建记录失败时除外），采集失败时同时返回错误
func (e *Engine) Run(ctx context.Context, req acquisition.Request, trigger string) (*storage.ExecutionRecord, error) {
	if err := e.track(); err != nil {
		return nil, err
	}
	defer e.wg.Done()

	rec, err := e.newRecord(ctx, req, trigger)
	if err != nil {
		return nil, err
	}
	return rec, e.execute(ctx, rec, req)
}

// Submit 创建执行记录后在后台执行采集，立即返回pending状态的记录（对外导出）
func (e *Engine) Submit(ctx context.Context, req acquisition.Request, trigger string) (*storage.ExecutionRecord, error) {
	if err := e.track(); err != nil {
		return nil, err
	}
	rec, err := e.newRecord(ctx, req, trigger)
	if err != nil {
		e.wg.Done()
		return nil, err
	}
	snapshot := *rec

	go func() {
		defer e.wg.Done()
		if err := e.execute(context.WithoutCancel(ctx), rec, req); err != nil {
			log.Printf("❌ [采集引擎] 后台执行 %s 失败: %v", rec.ID, err)
		}
	}()
	return &snapshot, nil
}

// Wait 等待所有进行中的执行结束
func (e *Engine) Wait() {
	e.wg.Wait()
}

// track 登记一次执行，引擎停止后返回ErrEngineStopped
// 与Stop共用锁，保证Stop开始等待后不会再有新的登记
func (e *Engine) track() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return ErrEngineStopped
	}
	e.wg.Add(1)
	return nil
}

func (e *Engine) newRecord(ctx context.Context, req acquisition.Request, trigger string) (*storage.ExecutionRecord, error) {
	if trigger == "" {
		trigger = storage.TriggerManual
	}
	rec := &storage.ExecutionRecord{
		ID:          uuid.NewString(),
		Source:      req.Source,
		Table:       e.resolveTable(req),
		Params:      req.Params,
		Status:      storage.ExecutionPending,
		TriggeredBy: trigger,
		StartTime:   time.Now(),
	}
	if err := e.executions.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("创建执行记录失败: %w", err)
	}
	e.publish(ctx, rec, acquisition.StateIdle)
	return rec, nil
}

func (e *Engine) resolveTable(req acquisition.Request) string {
	if t := strings.TrimSpace(req.Table); t != "" {
		return t
	}
	return storage.TableName(req.Source, e.tablePrefix)
}

// execute 执行采集并更新记录
func (e *Engine) execute(ctx context.Context, rec *storage.ExecutionRecord, req acquisition.Request) error {
	ctx = source.WithExecutionID(ctx, rec.ID)
	if req.BatchSize <= 0 {
		req.BatchSize = e.batchSize
	}
	req.Table = rec.Table

	rec.Status = storage.ExecutionRunning
	rec.StartTime = time.Now()
	if err := e.executions.Update(ctx, rec); err != nil {
		log.Printf("⚠️ [采集引擎] 更新执行记录 %s 失败: %v", rec.ID, err)
	}
	e.publish(ctx, rec, acquisition.StateCalling)

	rec.RowsBefore = e.rowCount(ctx, rec.Table)

	var result *storage.WriteResult
	attempts, err := e.policy.Do(ctx, req.Source, func(ctx context.Context, attempt int) error {
		res, err := e.acquirer.Acquire(ctx, req)
		if res != nil {
			result = res
		}
		return err
	})
	if attempts > 0 {
		rec.RetryCount = attempts - 1
	}
	if result != nil {
		rec.RowsWritten = result.RowsWritten
	}
	rec.RowsAfter = e.rowCount(ctx, rec.Table)

	end := time.Now()
	rec.EndTime = &end
	rec.Duration = end.Sub(rec.StartTime)

	state := acquisition.StateDone
	switch {
	case err == nil:
		rec.Status = storage.ExecutionCompleted
	case acquisition.KindOf(err) == acquisition.KindTimeout:
		rec.Status = storage.ExecutionTimeout
		rec.ErrorMessage = err.Error()
	default:
		rec.Status = storage.ExecutionFailed
		rec.ErrorMessage = err.Error()
	}
	var aErr *acquisition.AcquisitionError
	if errors.As(err, &aErr) {
		state = aErr.State
	}

	// 结束状态的记录不受调用方ctx取消影响
	saveCtx := context.WithoutCancel(ctx)
	if uerr := e.executions.Update(saveCtx, rec); uerr != nil {
		log.Printf("⚠️ [采集引擎] 更新执行记录 %s 失败: %v", rec.ID, uerr)
	}
	e.publish(saveCtx, rec, state)

	if err != nil {
		log.Printf("❌ [采集引擎] 执行 %s (%s) 失败: status=%s, 重试%d次, error=%v",
			rec.ID, rec.Source, rec.Status, rec.RetryCount, err)
		return err
	}
	log.Printf("✅ [采集引擎] 执行 %s (%s -> %s) 完成: 写入%d行, 表行数 %d -> %d, 耗时=%v",
		rec.ID, rec.Source, rec.Table, rec.RowsWritten, rec.RowsBefore, rec.RowsAfter, rec.Duration)
	return nil
}

func (e *Engine) rowCount(ctx context.Context, table string) int64 {
	if !storage.IsValidIdentifier(table) {
		return 0
	}
	n, err := e.pool.RowCount(context.WithoutCancel(ctx), table)
	if err != nil {
		log.Printf("⚠️ [采集引擎] 统计表 %s 行数失败: %v", table, err)
		return 0
	}
	return n
}

func (e *Engine) publish(ctx context.Context, rec *storage.ExecutionRecord, state acquisition.State) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, events.NewExecutionEvent(rec, string(state))); err != nil {
		log.Printf("⚠️ [采集引擎] 发布事件失败: %v", err)
	}
}
