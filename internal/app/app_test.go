package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/config"
	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

const appYAML = `
warehouse:
  storage:
    database:
      type: sqlite
      dsn: %s
    table_prefix: wh_
  execution:
    retry:
      enabled: true
      max_attempts: 2
      delay: 1ms
  sources:
    - name: stock_board_spot
      kind: json
      url: %s/board
      records_path: data.diff
      renames:
        f12: code
        f2: price
  schedules:
    - name: board_close
      cron: "0 5 15 * * 1-5"
      source: stock_board_spot
      mode: upsert
      unique_keys: [code]
`

func newTestApp(t *testing.T, extra ...RegisterFunc) *App {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rc":0,"data":{"diff":[{"f12":"000001","f2":10.5},{"f12":"600000","f2":8.25}]}}`))
	}))
	t.Cleanup(upstream.Close)

	dsn := filepath.Join(t.TempDir(), "app.db")
	cfg, err := config.Parse([]byte(fmt.Sprintf(appYAML, dsn, upstream.URL)))
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, extra...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNew_ConfiguredSourceAndSchedule(t *testing.T) {
	a := newTestApp(t)

	desc, ok := a.Registry.Describe("stock_board_spot")
	require.True(t, ok)
	assert.Equal(t, source.CategoryStock, desc.Category)

	schedules := a.Engine.Scheduler().List()
	require.Len(t, schedules, 1)
	assert.Equal(t, "wh_stock_board_spot", schedules[0].Table)
	assert.Equal(t, "upsert", schedules[0].Mode)

	rec, err := a.Engine.Run(context.Background(), acquisition.Request{Source: "stock_board_spot"}, storage.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, storage.ExecutionCompleted, rec.Status)
	assert.Equal(t, "wh_stock_board_spot", rec.Table)
	assert.Equal(t, int64(2), rec.RowsAfter)
}

func TestNew_ExtraSources(t *testing.T) {
	a := newTestApp(t, func(r *source.Registry) error {
		return r.RegisterFunc("fund_custom", func(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
			return tabular.MustNew(tabular.NewColumn("code", "510300")), nil
		})
	})
	assert.Equal(t, 2, a.Registry.Len())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources?category=fund", nil)
	w := httptest.NewRecorder()
	a.Handler("test").ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fund_custom")
}

func TestScheduleFromConfig(t *testing.T) {
	disabled := false
	s, err := ScheduleFromConfig(config.ScheduleConfig{
		Name: " nightly ", Cron: "@daily", Source: "stock_a", Mode: "plain", Enabled: &disabled,
	})
	require.NoError(t, err)
	assert.Equal(t, "nightly", s.Name)
	assert.Equal(t, storage.ModePlain, s.Request.Mode)
	assert.False(t, s.Enabled)

	_, err = ScheduleFromConfig(config.ScheduleConfig{Name: "bad", Mode: "merge"})
	assert.Error(t, err)
}

func TestRetryPolicy(t *testing.T) {
	var cfg config.ExecutionConfig
	assert.Equal(t, 1, RetryPolicy(cfg).MaxAttempts)

	cfg.Retry.Enabled = true
	cfg.Retry.MaxAttempts = 4
	p := RetryPolicy(cfg)
	assert.Equal(t, 4, p.MaxAttempts)
	require.NotNil(t, p.Retryable)
}
