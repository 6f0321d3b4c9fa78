package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

func TestColumnFromStrings(t *testing.T) {
	cases := []struct {
		name   string
		column string
		raw    []string
		want   tabular.Kind
	}{
		{"ints", "volume", []string{"100", "1,200", "-"}, tabular.KindInt},
		{"floats", "close", []string{"10.5", "8", ""}, tabular.KindFloat},
		{"percent", "change", []string{"1.5%", "-0.2%"}, tabular.KindFloat},
		{"codes stay text", "code", []string{"000001", "600000"}, tabular.KindText},
		{"bools", "flag", []string{"true", "False"}, tabular.KindBool},
		{"dates", "trade_date", []string{"2024-01-02", "2024/01/03"}, tabular.KindTime},
		{"compact dates with hint", "日期", []string{"20240102", "20240103"}, tabular.KindTime},
		{"compact numbers without hint", "amount", []string{"20240102"}, tabular.KindInt},
		{"text", "name", []string{"平安银行", "10"}, tabular.KindText},
		{"all blank", "x", []string{"", "--"}, tabular.KindText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			col := ColumnFromStrings(tc.column, tc.raw)
			assert.Equal(t, tc.want, col.Kind)
			assert.Len(t, col.Values, len(tc.raw))
		})
	}
}

func TestColumnFromStrings_Values(t *testing.T) {
	col := ColumnFromStrings("volume", []string{"1,200", "-"})
	assert.Equal(t, []interface{}{int64(1200), nil}, col.Values)

	col = ColumnFromStrings("date", []string{"20240102"})
	require.Equal(t, tabular.KindTime, col.Kind)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local), col.Values[0])

	col = ColumnFromStrings("code", []string{"000001", " "})
	assert.Equal(t, []interface{}{"000001", nil}, col.Values)
}

func TestResultFromStrings_Ragged(t *testing.T) {
	res, err := ResultFromStrings([]string{"a", "b"}, [][]string{{"1", "x"}, {"2"}, {"3", "y", "extra"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.NumRows())
	assert.Nil(t, res.Value(1, 1))
	assert.Equal(t, "y", res.Value(2, 1))
}
