package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

func TestValidateCronExpr(t *testing.T) {
	assert.NoError(t, ValidateCronExpr("0 30 15 * * 1-5"))
	assert.NoError(t, ValidateCronExpr("@every 1h"))
	assert.Error(t, ValidateCronExpr("30 15 * *"))
	assert.Error(t, ValidateCronExpr(""))
}

func TestCronScheduler_RegisterUnregister(t *testing.T) {
	env := newTestEnv(t)
	cs := env.engine.Scheduler()

	s := &Schedule{
		Name:     "daily_spot",
		CronExpr: "0 30 15 * * 1-5",
		Request:  acquisition.Request{Source: "stock_zh_a_spot"},
		Enabled:  true,
	}
	require.NoError(t, cs.Register(s))
	assert.Error(t, cs.Register(s), "duplicate name")

	assert.Error(t, cs.Register(&Schedule{Name: "off", CronExpr: "@daily", Request: s.Request}))
	assert.Error(t, cs.Register(&Schedule{Name: "bad", CronExpr: "nope", Request: s.Request, Enabled: true}))
	assert.Error(t, cs.Register(&Schedule{Name: "nosrc", CronExpr: "@daily", Enabled: true}))

	list := cs.List()
	require.Len(t, list, 1)
	assert.Equal(t, "daily_spot", list[0].Name)
	assert.Equal(t, "ak_stock_zh_a_spot", list[0].Table)
	assert.Equal(t, "ignore", list[0].Mode)

	require.NoError(t, cs.Unregister("daily_spot"))
	assert.Error(t, cs.Unregister("daily_spot"))
	assert.Empty(t, cs.List())
}

func TestCronScheduler_Trigger(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registry.RegisterFunc("stock_zh_a_spot", spot))

	cs := env.engine.Scheduler()
	cs.trigger(&Schedule{Name: "t", Request: acquisition.Request{Source: "stock_zh_a_spot"}, Enabled: true})

	recs, err := env.repo.List(context.Background(), storage.ExecutionFilter{Source: "stock_zh_a_spot"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, storage.TriggerScheduler, recs[0].TriggeredBy)
	assert.Equal(t, storage.ExecutionCompleted, recs[0].Status)
}
