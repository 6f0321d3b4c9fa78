package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/core/events"
	"github.com/LENAX/akshare-warehouse/pkg/core/executor"
	"github.com/LENAX/akshare-warehouse/pkg/core/retry"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/storage/sqlite"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

type testEnv struct {
	registry *source.Registry
	engine   *Engine
	bus      *events.Bus
	repo     storage.ExecutionRepository
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()
	pool, err := storage.OpenConnectionPool(ctx, sqlite.NewSQLiteDialect(),
		filepath.Join(t.TempDir(), "engine.db"), storage.PoolConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo, err := storage.NewExecutionRepo(ctx, pool)
	require.NoError(t, err)

	bus := events.NewBus()
	t.Cleanup(func() { bus.Close() })

	registry := source.NewRegistry()
	eng, err := NewEngine(Deps{
		Executor:   executor.NewExecutor(registry, executor.WithDefaultTimeout(time.Second)),
		Pool:       pool,
		Executions: repo,
		Publisher:  bus,
	}, opts...)
	require.NoError(t, err)
	return &testEnv{registry: registry, engine: eng, bus: bus, repo: repo}
}

func spot(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
	return tabular.MustNew(
		tabular.NewColumn("code", "000001", "600000", "000002"),
		tabular.NewColumn("price", 10.5, 8.2, 20.1),
	), nil
}

func TestNewEngine_RequiresDeps(t *testing.T) {
	_, err := NewEngine(Deps{})
	assert.Error(t, err)
}

func TestEngine_RunCompleted(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registry.RegisterFunc("stock_zh_a_spot", spot))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := env.bus.Subscribe(ctx)
	require.NoError(t, err)

	rec, err := env.engine.Run(context.Background(), acquisition.Request{Source: "stock_zh_a_spot"}, storage.TriggerAPI)
	require.NoError(t, err)
	assert.Equal(t, storage.ExecutionCompleted, rec.Status)
	assert.Equal(t, "ak_stock_zh_a_spot", rec.Table)
	assert.Equal(t, int64(0), rec.RowsBefore)
	assert.Equal(t, int64(3), rec.RowsAfter)
	assert.Equal(t, 3, rec.RowsWritten)
	assert.NotNil(t, rec.EndTime)

	stored, err := env.repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ExecutionCompleted, stored.Status)
	assert.Equal(t, storage.TriggerAPI, stored.TriggeredBy)
	assert.WithinDuration(t, rec.StartTime, stored.StartTime, time.Millisecond)

	// pending, running, completed
	var statuses []string
	for len(statuses) < 3 {
		select {
		case ev := <-sub:
			require.Equal(t, rec.ID, ev.ExecutionID)
			statuses = append(statuses, ev.Status)
		case <-time.After(time.Second):
			t.Fatalf("missing events, got %v", statuses)
		}
	}
	assert.Equal(t, []string{storage.ExecutionPending, storage.ExecutionRunning, storage.ExecutionCompleted}, statuses)

	// 第二次写入相同数据，忽略重复行
	rec2, err := env.engine.Run(context.Background(), acquisition.Request{
		Source:     "stock_zh_a_spot",
		UniqueKeys: []string{"code"},
	}, storage.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec2.RowsBefore)
}

func TestEngine_RunTimeoutRetried(t *testing.T) {
	env := newTestEnv(t, WithRetryPolicy(retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}))
	var calls int32
	require.NoError(t, env.registry.RegisterFunc("slow", func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	rec, err := env.engine.Run(context.Background(), acquisition.Request{Source: "slow", Timeout: 20 * time.Millisecond}, storage.TriggerManual)
	require.Error(t, err)
	assert.Equal(t, acquisition.KindTimeout, acquisition.KindOf(err))
	assert.Equal(t, storage.ExecutionTimeout, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
	assert.NotEmpty(t, rec.ErrorMessage)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
}

func TestEngine_RunCallFailedThenSucceeds(t *testing.T) {
	env := newTestEnv(t, WithRetryPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}))
	var calls int32
	require.NoError(t, env.registry.RegisterFunc("flaky", func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset")
		}
		return spot(ctx, params)
	}))

	rec, err := env.engine.Run(context.Background(), acquisition.Request{Source: "flaky"}, storage.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, storage.ExecutionCompleted, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
}

func TestEngine_RunNotFoundNotRetried(t *testing.T) {
	env := newTestEnv(t, WithRetryPolicy(retry.Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}))

	rec, err := env.engine.Run(context.Background(), acquisition.Request{Source: "missing"}, storage.TriggerManual)
	require.Error(t, err)
	assert.Equal(t, acquisition.KindNotFound, acquisition.KindOf(err))
	assert.Equal(t, storage.ExecutionFailed, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
}

func TestEngine_Submit(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registry.RegisterFunc("fund_etf_spot", spot))

	rec, err := env.engine.Submit(context.Background(), acquisition.Request{Source: "fund_etf_spot"}, storage.TriggerAPI)
	require.NoError(t, err)
	assert.Equal(t, storage.ExecutionPending, rec.Status)

	env.engine.Wait()
	stored, err := env.repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ExecutionCompleted, stored.Status)
	assert.Equal(t, int64(3), stored.RowsAfter)
}

func TestEngine_StartStop(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.engine.Start(context.Background()))
	assert.True(t, env.engine.IsRunning())
	require.NoError(t, env.engine.Start(context.Background()))
	env.engine.Stop()
	assert.False(t, env.engine.IsRunning())

	require.NoError(t, env.registry.RegisterFunc("stock_zh_a_spot", spot))
	_, err := env.engine.Submit(context.Background(), acquisition.Request{Source: "stock_zh_a_spot"}, storage.TriggerAPI)
	assert.ErrorIs(t, err, ErrEngineStopped)
	_, err = env.engine.Run(context.Background(), acquisition.Request{Source: "stock_zh_a_spot"}, storage.TriggerAPI)
	assert.ErrorIs(t, err, ErrEngineStopped)
	assert.ErrorIs(t, env.engine.Start(context.Background()), ErrEngineStopped)

	list, err := env.repo.List(context.Background(), storage.ExecutionFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEngine_TablePrefix(t *testing.T) {
	env := newTestEnv(t, WithTablePrefix("wh_"))
	require.NoError(t, env.registry.RegisterFunc("stock_zh_a_spot", spot))

	rec, err := env.engine.Run(context.Background(), acquisition.Request{Source: "stock_zh_a_spot"}, storage.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, "wh_stock_zh_a_spot", rec.Table)
	assert.Equal(t, int64(3), rec.RowsAfter)

	rec, err = env.engine.Run(context.Background(), acquisition.Request{Source: "stock_zh_a_spot", Table: "quotes"}, storage.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, "quotes", rec.Table)
}
