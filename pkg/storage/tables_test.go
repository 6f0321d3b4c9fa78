package storage_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

func TestTableName(t *testing.T) {
	cases := map[string]string{
		"stock_zh_a_hist":       "ak_stock_zh_a_hist",
		"Stock-ZH.A Spot":       "ak_stock_zh_a_spot",
		"fund_etf(东方财富)":        "ak_fund_etf",
		"100_index":             "ak_t_100_index",
		"":                      "ak_unnamed",
		strings.Repeat("a", 80): "ak_" + strings.Repeat("a", 60),
	}
	for in, want := range cases {
		got := storage.TableName(in, storage.DefaultTablePrefix)
		assert.Equal(t, want, got, in)
		assert.True(t, storage.IsValidIdentifier(got), got)
	}
	assert.Equal(t, "plain", storage.TableName("plain", ""))
}

func TestRowCount_MissingTable(t *testing.T) {
	pool := newTestPool(t)
	n, err := pool.RowCount(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = pool.RowCount(context.Background(), "bad name")
	assert.True(t, errors.Is(err, storage.ErrInvalidIdentifier))
}
