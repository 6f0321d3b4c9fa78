package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"symbol=600000", " start_date = 20240101", "adjust="})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"symbol":     "600000",
		"start_date": "20240101",
		"adjust":     "",
	}, params)

	params, err = parseParams(nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	_, err = parseParams([]string{"symbol"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=1"})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetOut(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "AKShare Warehouse CLI")
	assert.Contains(t, buf.String(), Version)
}

func TestRemoteCommands(t *testing.T) {
	var acquired dto.AcquireRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sources", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dto.NewSuccessResponse(dto.ListResponse[dto.SourceSummary]{
			Total: 1,
			Items: []dto.SourceSummary{{Name: "stock_zh_a_spot", Category: "stock", Description: "沪深A股实时行情"}},
		}))
	})
	mux.HandleFunc("/api/v1/acquisitions", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&acquired)
		json.NewEncoder(w).Encode(dto.NewSuccessResponse(dto.AcquisitionResponse{
			Execution: dto.ExecutionDetail{ExecutionSummary: dto.ExecutionSummary{ID: "exec-1", Status: "completed", RowsWritten: 2}},
			State:     "Done",
		}))
	})
	mux.HandleFunc("/api/v1/executions/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(dto.NewErrorResponse(404, "执行记录不存在"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rootCmd.SetArgs([]string{"source", "list", "--server", srv.URL})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"acquire", "stock_zh_a_spot", "--remote", "--server", srv.URL,
		"-p", "market=sh", "--mode", "upsert", "--keys", "code,date", "--timeout", "90s"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "stock_zh_a_spot", acquired.Source)
	assert.Equal(t, "sh", acquired.Params["market"])
	assert.Equal(t, []string{"code", "date"}, acquired.UniqueKeys)
	assert.Equal(t, 90, acquired.TimeoutSeconds)

	rootCmd.SetArgs([]string{"execution", "get", "missing", "--server", srv.URL})
	assert.Error(t, rootCmd.Execute())
}

func TestAcquireLocal(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["000001",10.5],["600000",8.25]]`))
	}))
	defer upstream.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "warehouse.yaml")
	yaml := "warehouse:\n" +
		"  storage:\n" +
		"    database:\n" +
		"      type: sqlite\n" +
		"      dsn: " + filepath.Join(dir, "wh.db") + "\n" +
		"  sources:\n" +
		"    - name: stock_rows\n" +
		"      kind: json\n" +
		"      url: " + upstream.URL + "\n" +
		"      fields: [code, price]\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	rootCmd.SetArgs([]string{"acquire", "stock_rows", "--remote=false", "--config", cfgPath,
		"--mode", "ignore", "--keys", "", "--timeout", "0s"})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"acquire", "missing_source", "--remote=false", "--config", cfgPath})
	assert.Error(t, rootCmd.Execute())
}
