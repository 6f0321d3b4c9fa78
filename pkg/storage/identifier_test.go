package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	valid := map[string]string{
		"stock_zh_a_hist": "stock_zh_a_hist",
		"  close  ":       "close",
		"T1":              "T1",
		"123":             "123",
	}
	for in, want := range valid {
		got, err := ValidateIdentifier(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	invalid := []string{"", "   ", "a-b", "a b", "x;DROP TABLE y", "名称", "`t`", "a.b"}
	for _, in := range invalid {
		_, err := ValidateIdentifier(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidIdentifier), in)
	}
}
