package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LENAX/akshare-warehouse/pkg/core/executor"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// Caller 远程调用接口，由executor.Executor实现（对外导出）
type Caller interface {
	Call(ctx context.Context, name string, params map[string]interface{}, timeout time.Duration) (executor.Outcome, error)
}

// Writer 批量写入接口，由storage.BatchWriter实现（对外导出）
type Writer interface {
	Write(ctx context.Context, result *tabular.Result, opts storage.WriteOptions) (*storage.WriteResult, error)
}

// StateHook 状态变化回调
type StateHook func(ctx context.Context, req Request, state State)

// Request 一次采集请求（对外导出）
type Request struct {
	Source      string                 // 数据源函数名
	Params      map[string]interface{} // 调用参数
	Table       string                 // 目标表，为空时由Source生成
	Timeout     time.Duration          // 远程调用超时，<=0使用执行器默认值
	Mode        storage.WriteMode      // 写入模式，零值为ModeIgnoreDuplicates
	UniqueKeys  []string               // ModeUpsert的唯一键
	BatchSize   int                    // 每批行数，<=0使用默认值
	FailOnEmpty bool                   // 空结果视为KindEmpty错误
}

// Acquirer 采集编排器（对外导出）
// 调用数据源、校验结果、建表并写入，内部不重试
type Acquirer struct {
	caller Caller
	writer Writer
	hook   StateHook
}

// NewAcquirer 创建采集编排器（对外导出）
func NewAcquirer(caller Caller, writer Writer) *Acquirer {
	return &Acquirer{caller: caller, writer: writer}
}

// SetStateHook 设置状态变化回调
func (a *Acquirer) SetStateHook(hook StateHook) {
	a.hook = hook
}

func (a *Acquirer) transition(ctx context.Context, req Request, st State) {
	if a.hook != nil {
		a.hook(ctx, req, st)
	}
}

// ResolveTable 返回请求的目标表名，未指定时由数据源名生成（对外导出）
func (r Request) ResolveTable() string {
	if t := strings.TrimSpace(r.Table); t != "" {
		return t
	}
	return storage.TableName(r.Source, storage.DefaultTablePrefix)
}

// Acquire 执行一次采集（对外导出）
// 空结果为软成功，返回RowsWritten=0且不写入
func (a *Acquirer) Acquire(ctx context.Context, req Request) (*storage.WriteResult, error) {
	req.Source = strings.TrimSpace(req.Source)
	table := req.ResolveTable()
	fail := func(kind ErrorKind, st State, err error) error {
		a.transition(ctx, req, st)
		return &AcquisitionError{Kind: kind, State: st, Source: req.Source, Table: table, Err: err}
	}

	if req.Source == "" {
		return nil, fail(KindInvalidRequest, StateIdle, errors.New("数据源名称不能为空"))
	}
	if _, err := storage.ValidateIdentifier(table); err != nil {
		return nil, fail(KindInvalidRequest, StateIdle, err)
	}
	if req.Mode == storage.ModeUpsert && len(req.UniqueKeys) == 0 {
		return nil, fail(KindInvalidRequest, StateIdle, storage.ErrUpsertKeysRequired)
	}

	start := time.Now()
	a.transition(ctx, req, StateCalling)
	outcome, err := a.caller.Call(ctx, req.Source, req.Params, req.Timeout)
	if err != nil {
		if errors.Is(err, source.ErrFunctionNotFound) {
			return nil, fail(KindNotFound, StateIdle, err)
		}
		return nil, fail(KindCallFailed, StateCallFailed, err)
	}

	switch outcome.Status {
	case executor.StatusTimeout:
		return nil, fail(KindTimeout, StateTimedOut, errors.New(outcome.Message))
	case executor.StatusError:
		cause := outcome.Err
		if cause == nil {
			cause = errors.New(outcome.Message)
		}
		return nil, fail(KindCallFailed, StateCallFailed, cause)
	}
	a.transition(ctx, req, StateCallSucceeded)

	if outcome.Result.IsEmpty() {
		if req.FailOnEmpty {
			return nil, fail(KindEmpty, StateCallSucceeded, fmt.Errorf("数据源 %s 返回空数据", req.Source))
		}
		log.Printf("⚠️ [采集] %s 返回空数据，跳过写入", req.Source)
		a.transition(ctx, req, StateDone)
		return &storage.WriteResult{Table: table, Duration: time.Since(start)}, nil
	}

	a.transition(ctx, req, StateWriting)
	res, err := a.writer.Write(ctx, outcome.Result, storage.WriteOptions{
		Table:           table,
		Mode:            req.Mode,
		UniqueKeys:      req.UniqueKeys,
		CreateIfMissing: true,
		BatchSize:       req.BatchSize,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidIdentifier) || errors.Is(err, storage.ErrUpsertKeysRequired) {
			return res, fail(KindInvalidRequest, StateWriteFailed, err)
		}
		return res, fail(KindWriteFailed, StateWriteFailed, err)
	}

	res.Duration = time.Since(start)
	log.Printf("✅ [采集] %s -> %s 完成, 写入%d行, 耗时=%v", req.Source, res.Table, res.RowsWritten, res.Duration)
	a.transition(ctx, req, StateDone)
	return res, nil
}
