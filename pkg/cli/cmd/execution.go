package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LENAX/akshare-warehouse/pkg/cli/output"
	"github.com/LENAX/akshare-warehouse/pkg/cli/warehouse"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	executionSource string
	executionStatus string
	executionLimit  int
	executionOffset int
	statsDays       int
)

// executionCmd execution子命令
var executionCmd = &cobra.Command{
	Use:   "execution",
	Short: "执行记录查询命令",
	Long:  `查询采集执行记录和执行统计。`,
}

// executionListCmd 列出执行记录
var executionListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出执行记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := warehouse.New(serverURL)
		result, err := client.ListExecutions(executionSource, executionStatus, executionLimit, executionOffset)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无执行记录")
			return nil
		}

		table := output.NewTable([]string{"EXECUTION_ID", "SOURCE", "TABLE", "STATUS", "TRIGGER", "WRITTEN", "STARTED", "DURATION"})
		for _, e := range result.Items {
			table.AddRow([]string{
				e.ID,
				e.Source,
				e.Table,
				output.Status(e.Status),
				e.TriggeredBy,
				strconv.Itoa(e.RowsWritten),
				e.StartedAt.Local().Format(timeLayout),
				orDash(e.Duration),
			})
		}
		table.Render()
		if result.HasMore {
			output.Info("还有更多记录，使用 --offset %d 查看下一页", executionOffset+len(result.Items))
		}
		return nil
	},
}

// executionGetCmd 查看执行记录
var executionGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "查看执行记录详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := warehouse.New(serverURL)
		e, err := client.GetExecution(args[0])
		if err != nil {
			if warehouse.IsNotFound(err) {
				output.Error("执行记录不存在: %s", args[0])
			} else {
				output.Error("查询失败: %v", err)
			}
			return err
		}

		if outputJSON {
			return output.PrintJSON(e)
		}

		finished := "-"
		if e.FinishedAt != nil {
			finished = e.FinishedAt.Local().Format(timeLayout)
		}
		table := output.NewTable([]string{"FIELD", "VALUE"})
		table.AddRow([]string{"ID", e.ID})
		table.AddRow([]string{"Source", e.Source})
		table.AddRow([]string{"Table", e.Table})
		table.AddRow([]string{"Status", output.Status(e.Status)})
		table.AddRow([]string{"Triggered By", e.TriggeredBy})
		table.AddRow([]string{"Retries", strconv.Itoa(e.RetryCount)})
		table.AddRow([]string{"Rows", fmt.Sprintf("%d -> %d (写入 %d)", e.RowsBefore, e.RowsAfter, e.RowsWritten)})
		table.AddRow([]string{"Started", e.StartedAt.Local().Format(timeLayout)})
		table.AddRow([]string{"Finished", finished})
		table.AddRow([]string{"Duration", orDash(e.Duration)})
		if len(e.Params) > 0 {
			table.AddRow([]string{"Params", formatAny(e.Params)})
		}
		table.Render()
		if e.ErrorMessage != "" {
			output.Error("%s", e.ErrorMessage)
		}
		return nil
	},
}

// executionStatsCmd 执行统计
var executionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "执行统计",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := warehouse.New(serverURL)
		s, err := client.Stats(statsDays)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(s)
		}

		table := output.NewTable([]string{"TOTAL", "COMPLETED", "FAILED", "TIMEOUT", "RUNNING", "SUCCESS_RATE", "AVG_DURATION", "ROWS_ADDED"})
		table.AddRow([]string{
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Completed),
			strconv.Itoa(s.Failed),
			strconv.Itoa(s.Timeout),
			strconv.Itoa(s.Running),
			fmt.Sprintf("%.1f%%", s.SuccessRate*100),
			fmt.Sprintf("%.2fs", s.AvgDuration),
			strconv.FormatInt(s.TotalRowsAdd, 10),
		})
		table.Render()
		output.Info("统计起始时间: %s", s.Since.Local().Format(timeLayout))
		return nil
	},
}

func formatAny(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

func init() {
	executionListCmd.Flags().StringVar(&executionSource, "source", "", "按数据源过滤")
	executionListCmd.Flags().StringVar(&executionStatus, "status", "", "按状态过滤（pending/running/completed/failed/timeout）")
	executionListCmd.Flags().IntVarP(&executionLimit, "limit", "l", 20, "返回数量限制")
	executionListCmd.Flags().IntVar(&executionOffset, "offset", 0, "偏移量")
	executionStatsCmd.Flags().IntVarP(&statsDays, "days", "d", 7, "统计最近N天")

	executionCmd.AddCommand(executionListCmd)
	executionCmd.AddCommand(executionGetCmd)
	executionCmd.AddCommand(executionStatsCmd)
}
