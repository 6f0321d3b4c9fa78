package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/akshare-warehouse/internal/app"
	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/api/handler"
	"github.com/LENAX/akshare-warehouse/pkg/cli/output"
	"github.com/LENAX/akshare-warehouse/pkg/cli/warehouse"
	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

var (
	acquireParams      []string
	acquireTable       string
	acquireMode        string
	acquireKeys        []string
	acquireTimeout     time.Duration
	acquireBatchSize   int
	acquireFailOnEmpty bool
	acquireRemote      bool
)

// acquireCmd 执行一次采集
var acquireCmd = &cobra.Command{
	Use:   "acquire <source>",
	Short: "采集数据源并写入数据仓库",
	Long: `调用数据源函数并将结果写入数据仓库。

默认读取配置文件在本地执行；指定 --remote 时通过HTTP API在服务端执行。

示例：
  warehouse acquire stock_zh_a_spot
  warehouse acquire stock_zh_a_hist -p symbol=600000 --table stock_hist --mode upsert --keys date
  warehouse acquire fund_etf_spot --remote --server http://localhost:8000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(acquireParams)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		body := dto.AcquireRequest{
			Source:         args[0],
			Params:         params,
			Table:          acquireTable,
			Mode:           acquireMode,
			UniqueKeys:     acquireKeys,
			TimeoutSeconds: int(acquireTimeout / time.Second),
			BatchSize:      acquireBatchSize,
			FailOnEmpty:    acquireFailOnEmpty,
		}
		if acquireRemote {
			return acquireRemotely(body)
		}
		return acquireLocally(cmd.Context(), body)
	},
}

func acquireRemotely(body dto.AcquireRequest) error {
	client := warehouse.New(serverURL)
	resp, err := client.Acquire(body)
	if resp != nil {
		printAcquisition(resp)
	}
	if err != nil {
		output.Error("采集失败: %v", err)
		return err
	}
	return nil
}

func acquireLocally(ctx context.Context, body dto.AcquireRequest) error {
	req, err := handler.ToRequest(body)
	if err != nil {
		output.Error("%v", err)
		return err
	}
	if acquireTimeout > 0 {
		req.Timeout = acquireTimeout
	}

	cfg, err := loadConfig()
	if err != nil {
		output.Error("加载配置失败: %v", err)
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		output.Error("初始化失败: %v", err)
		return err
	}
	defer a.Close()

	rec, runErr := a.Engine.Run(ctx, req, storage.TriggerManual)
	if rec == nil {
		output.Error("采集失败: %v", runErr)
		return runErr
	}
	resp := &dto.AcquisitionResponse{Execution: handler.ToExecutionDetail(rec), State: string(acquisition.StateDone)}
	if runErr != nil {
		resp.ErrorKind = string(acquisition.KindOf(runErr))
		var aErr *acquisition.AcquisitionError
		if errors.As(runErr, &aErr) {
			resp.State = string(aErr.State)
		}
	}
	printAcquisition(resp)
	if runErr != nil {
		output.Error("采集失败: %v", runErr)
		return runErr
	}
	return nil
}

func printAcquisition(resp *dto.AcquisitionResponse) {
	if outputJSON {
		output.PrintJSON(resp)
		return
	}
	e := resp.Execution
	table := output.NewTable([]string{"EXECUTION_ID", "SOURCE", "TABLE", "STATUS", "STATE", "WRITTEN", "ROWS", "DURATION"})
	table.AddRow([]string{
		e.ID,
		e.Source,
		e.Table,
		output.Status(e.Status),
		resp.State,
		strconv.Itoa(e.RowsWritten),
		fmt.Sprintf("%d -> %d", e.RowsBefore, e.RowsAfter),
		orDash(e.Duration),
	})
	table.Render()
	if e.Status == storage.ExecutionCompleted {
		output.Success("已写入 %s: %d 行", e.Table, e.RowsWritten)
	}
}

// parseParams 解析 key=value 形式的参数
func parseParams(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("参数格式错误: %q，应为 key=value", p)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	acquireCmd.Flags().StringArrayVarP(&acquireParams, "param", "p", nil, "数据源参数 key=value，可重复")
	acquireCmd.Flags().StringVarP(&acquireTable, "table", "t", "", "目标表名，默认由数据源名生成")
	acquireCmd.Flags().StringVarP(&acquireMode, "mode", "m", "", "写入模式 ignore/plain/upsert")
	acquireCmd.Flags().StringSliceVarP(&acquireKeys, "keys", "k", nil, "upsert唯一键，逗号分隔")
	acquireCmd.Flags().DurationVar(&acquireTimeout, "timeout", 0, "调用超时，如 90s")
	acquireCmd.Flags().IntVar(&acquireBatchSize, "batch-size", 0, "每批写入行数")
	acquireCmd.Flags().BoolVar(&acquireFailOnEmpty, "fail-on-empty", false, "结果为空时视为失败")
	acquireCmd.Flags().BoolVar(&acquireRemote, "remote", false, "通过HTTP API在服务端执行")
}
