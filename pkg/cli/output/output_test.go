package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 6, DisplayWidth("000001"))
	assert.Equal(t, 8, DisplayWidth("平安银行"))
	assert.Equal(t, 4, DisplayWidth("A股B"))
	assert.Equal(t, 5, DisplayWidth("ETF基金"))
}

func TestTable_RenderAligned(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	table := NewTable([]string{"CODE", "NAME"})
	table.AddRow([]string{"000001", "平安银行"})
	table.AddRow([]string{"600000", "浦发"})
	assert.Equal(t, 2, table.Len())

	var buf bytes.Buffer
	table.RenderTo(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "CODE    NAME      ", lines[0])
	assert.Equal(t, "------  --------  ", lines[1])
	assert.Equal(t, "600000  浦发      ", lines[3])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]string{"name": "<a>"}))
	assert.Equal(t, "{\n  \"name\": \"<a>\"\n}\n", buf.String())
}
