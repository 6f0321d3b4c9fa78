package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/core/cache"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

func newRegistry(t *testing.T, fns map[string]source.FetchFunc) *source.Registry {
	t.Helper()
	r := source.NewRegistry()
	for name, fn := range fns {
		require.NoError(t, r.RegisterFunc(name, fn))
	}
	return r
}

func TestExecutor_Success(t *testing.T) {
	reg := newRegistry(t, map[string]source.FetchFunc{
		"ok": func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			assert.Equal(t, "ok", source.GetSourceName(ctx))
			return tabular.MustNew(tabular.NewColumn("symbol", params["symbol"])), nil
		},
	})
	e := NewExecutor(reg)

	out, err := e.Call(context.Background(), "ok", map[string]interface{}{"symbol": "000001"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.True(t, out.OK())
	assert.Equal(t, 1, out.Result.NumRows())
}

func TestExecutor_NotFound(t *testing.T) {
	e := NewExecutor(source.NewRegistry())
	_, err := e.Call(context.Background(), "missing", nil, time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrFunctionNotFound))
	assert.Equal(t, 0, e.Running())
}

func TestExecutor_Error(t *testing.T) {
	reg := newRegistry(t, map[string]source.FetchFunc{
		"bad": func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			return nil, errors.New("upstream 500")
		},
	})
	out, err := NewExecutor(reg).Call(context.Background(), "bad", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusError, out.Status)
	assert.Equal(t, "upstream 500", out.Message)
}

func TestExecutor_Panic(t *testing.T) {
	reg := newRegistry(t, map[string]source.FetchFunc{
		"boom": func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			panic("nil map")
		},
	})
	out, err := NewExecutor(reg).Call(context.Background(), "boom", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusError, out.Status)
	assert.Contains(t, out.Message, "nil map")
}

func TestExecutor_Timeout(t *testing.T) {
	released := make(chan struct{})
	reg := newRegistry(t, map[string]source.FetchFunc{
		"slow": func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			<-ctx.Done()
			close(released)
			return nil, ctx.Err()
		},
	})
	e := NewExecutor(reg)

	start := time.Now()
	out, err := e.Call(context.Background(), "slow", nil, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, out.Status)
	assert.Less(t, time.Since(start), time.Second)

	// 工作协程收到取消信号并退出，名额归还
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("worker did not observe cancellation")
	}
	assert.Eventually(t, func() bool { return e.Running() == 0 }, time.Second, 5*time.Millisecond)
}

func TestExecutor_ParentCancelled(t *testing.T) {
	reg := newRegistry(t, map[string]source.FetchFunc{
		"slow": func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	out, err := NewExecutor(reg).Call(ctx, "slow", nil, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusError, out.Status)
}

func TestExecutor_NilResultIsEmpty(t *testing.T) {
	reg := newRegistry(t, map[string]source.FetchFunc{
		"nil": func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			return nil, nil
		},
	})
	out, err := NewExecutor(reg).Call(context.Background(), "nil", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.True(t, out.Result.IsEmpty())
}

func TestExecutor_WorkerLimit(t *testing.T) {
	var concurrent, peak int32
	reg := newRegistry(t, map[string]source.FetchFunc{
		"busy": func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			n := atomic.AddInt32(&concurrent, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			atomic.AddInt32(&concurrent, -1)
			return tabular.MustNew(), nil
		},
	})
	e := NewExecutor(reg, WithMaxWorkers(2))

	done := make(chan struct{})
	for i := 0; i < 6; i++ {
		go func() {
			_, _ = e.Call(context.Background(), "busy", nil, 5*time.Second)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 6; i++ {
		<-done
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestExecutor_Cache(t *testing.T) {
	var calls int32
	reg := newRegistry(t, map[string]source.FetchFunc{
		"cached": func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			atomic.AddInt32(&calls, 1)
			return tabular.MustNew(tabular.NewColumn("v", 1)), nil
		},
	})
	c := cache.NewMemoryResultCache()
	defer c.Stop()
	e := NewExecutor(reg, WithCache(c, time.Minute))

	params := map[string]interface{}{"symbol": "000001"}
	first, err := e.Call(context.Background(), "cached", params, time.Second)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := e.Call(context.Background(), "cached", params, time.Second)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExecutor_DefaultTimeout(t *testing.T) {
	e := NewExecutor(source.NewRegistry())
	assert.Equal(t, DefaultTimeout, e.defaultTimeout)
	e = NewExecutor(source.NewRegistry(), WithDefaultTimeout(time.Second))
	assert.Equal(t, time.Second, e.defaultTimeout)
}
