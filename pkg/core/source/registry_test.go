package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

func noop(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
	return tabular.MustNew(), nil
}

func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("stock_zh_a_hist", noop))
	require.NoError(t, r.Register(Descriptor{Name: "fund_etf_spot", Description: "ETF实时行情"}, noop))
	require.NoError(t, r.Register(Descriptor{Name: "custom", Category: CategoryMacro}, noop))

	fn, err := r.Lookup("stock_zh_a_hist")
	require.NoError(t, err)
	assert.NotNil(t, fn)

	_, err = r.Lookup("missing")
	assert.True(t, errors.Is(err, ErrFunctionNotFound))

	assert.Error(t, r.RegisterFunc("stock_zh_a_hist", noop))
	assert.Error(t, r.RegisterFunc("", noop))
	assert.Error(t, r.RegisterFunc("nil_fn", nil))

	desc, ok := r.Describe("fund_etf_spot")
	require.True(t, ok)
	assert.Equal(t, CategoryFund, desc.Category)

	all := r.List("")
	require.Len(t, all, 3)
	assert.Equal(t, "custom", all[0].Name)
	assert.Len(t, r.List(CategoryMacro), 1)
	assert.Equal(t, 3, r.Len())
}

func TestInferCategory(t *testing.T) {
	cases := map[string]string{
		"stock_zh_a_spot":        CategoryStock,
		"fund_open_fund_daily":   CategoryFund,
		"futures_main_sina":      CategoryFutures,
		"index_zh_a_hist":        CategoryIndex,
		"bond_zh_hs_daily":       CategoryBond,
		"forex_spot_quote":       CategoryForex,
		"economic_calendar":      CategoryEconomic,
		"macro_china_gdp":        CategoryMacro,
		"some_unknown_interface": CategoryStock,
	}
	for name, want := range cases {
		assert.Equal(t, want, InferCategory(name), name)
	}
}

func TestContextKeys(t *testing.T) {
	ctx := WithSourceName(WithExecutionID(context.Background(), "exec-1"), "stock_a")
	assert.Equal(t, "exec-1", GetExecutionID(ctx))
	assert.Equal(t, "stock_a", GetSourceName(ctx))
	assert.Equal(t, "", GetExecutionID(context.Background()))
}
