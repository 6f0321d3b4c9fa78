package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplacePlaceholders(t *testing.T) {
	out, missing := ReplacePlaceholders("https://x/${symbol}/k?date=${date}&n=${n}", map[string]interface{}{
		"symbol": "sh600000",
		"n":      20,
	})
	assert.Equal(t, "https://x/sh600000/k?date=${date}&n=20", out)
	assert.Equal(t, []string{"date"}, missing)

	out, missing = ReplacePlaceholders("plain", nil)
	assert.Equal(t, "plain", out)
	assert.Empty(t, missing)
}

func TestReplaceParamsInMap(t *testing.T) {
	out, err := ReplaceParamsInMap(map[string]string{"code": "${symbol}", "fixed": "1"}, map[string]interface{}{"symbol": "000001"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"code": "000001", "fixed": "1"}, out)

	_, err = ReplaceParamsInMap(map[string]string{"a": "${x}"}, nil)
	assert.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Placeholders("${a}/${b}", "${a}"))
}
