package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

func newExecution(source, status string, start time.Time) *storage.ExecutionRecord {
	return &storage.ExecutionRecord{
		ID:          uuid.NewString(),
		Source:      source,
		Table:       storage.TableName(source, storage.DefaultTablePrefix),
		Params:      map[string]interface{}{"symbol": "000001"},
		Status:      status,
		TriggeredBy: storage.TriggerAPI,
		StartTime:   start,
	}
}

func TestExecutionRepo_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo, err := storage.NewExecutionRepo(ctx, pool)
	require.NoError(t, err)

	rec := newExecution("stock_zh_a_hist", storage.ExecutionRunning, time.Now())
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Source, got.Source)
	assert.Equal(t, rec.Table, got.Table)
	assert.Equal(t, "000001", got.Params["symbol"])
	assert.Equal(t, storage.ExecutionRunning, got.Status)
	assert.Nil(t, got.EndTime)
	assert.False(t, got.IsTerminal())

	started := rec.StartTime.Add(2 * time.Second)
	end := started.Add(1500 * time.Millisecond)
	rec.StartTime = started
	rec.Status = storage.ExecutionCompleted
	rec.RowsBefore = 10
	rec.RowsAfter = 15
	rec.RowsWritten = 5
	rec.EndTime = &end
	rec.Duration = 1500 * time.Millisecond
	require.NoError(t, repo.Update(ctx, rec))

	got, err = repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ExecutionCompleted, got.Status)
	assert.Equal(t, int64(15), got.RowsAfter)
	assert.Equal(t, 5, got.RowsWritten)
	require.NotNil(t, got.EndTime)
	assert.InDelta(t, 1.5, got.Duration.Seconds(), 0.001)
	assert.WithinDuration(t, started, got.StartTime, time.Millisecond)
	assert.InDelta(t, got.Duration.Seconds(), got.EndTime.Sub(got.StartTime).Seconds(), 0.001)
	assert.True(t, got.IsTerminal())

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrExecutionNotFound))
}

func TestExecutionRepo_ListAndStats(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo, err := storage.NewExecutionRepo(ctx, pool)
	require.NoError(t, err)

	base := time.Now().Add(-time.Minute)
	ok1 := newExecution("stock_a", storage.ExecutionCompleted, base)
	ok1.RowsBefore, ok1.RowsAfter, ok1.Duration = 0, 10, 2*time.Second
	ok2 := newExecution("stock_a", storage.ExecutionCompleted, base.Add(time.Second))
	ok2.RowsBefore, ok2.RowsAfter, ok2.Duration = 10, 14, 4*time.Second
	bad := newExecution("fund_b", storage.ExecutionFailed, base.Add(2*time.Second))
	bad.ErrorMessage = "boom"
	slow := newExecution("fund_b", storage.ExecutionTimeout, base.Add(3*time.Second))

	for _, rec := range []*storage.ExecutionRecord{ok1, ok2, bad, slow} {
		require.NoError(t, repo.Create(ctx, rec))
	}

	all, err := repo.List(ctx, storage.ExecutionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, slow.ID, all[0].ID)

	bySource, err := repo.List(ctx, storage.ExecutionFilter{Source: "stock_a"})
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	failed, err := repo.List(ctx, storage.ExecutionFilter{Status: storage.ExecutionFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].ErrorMessage)

	page, err := repo.List(ctx, storage.ExecutionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, bad.ID, page[0].ID)

	stats, err := repo.Stats(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Timeout)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 3.0, stats.AvgDuration, 1e-9)
	assert.Equal(t, int64(14), stats.TotalRowsAdd)
}
