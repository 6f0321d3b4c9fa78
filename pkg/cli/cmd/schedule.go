package cmd

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/akshare-warehouse/pkg/cli/output"
	"github.com/LENAX/akshare-warehouse/pkg/cli/warehouse"
)

var tableRefresh bool

// scheduleCmd schedule子命令
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "定时任务查询命令",
}

// scheduleListCmd 列出定时任务
var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出定时任务及下次执行时间",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := warehouse.New(serverURL)
		result, err := client.ListSchedules()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无定时任务")
			return nil
		}

		table := output.NewTable([]string{"NAME", "CRON", "SOURCE", "TABLE", "MODE", "NEXT_RUN", "LAST_RUN"})
		for _, s := range result.Items {
			table.AddRow([]string{s.Name, s.Cron, s.Source, s.Table, s.Mode, formatTimePtr(s.NextRun), formatTimePtr(s.LastRun)})
		}
		table.Render()
		return nil
	},
}

// tableCmd table子命令
var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "数据表查询命令",
}

// tableStatsCmd 查看表统计
var tableStatsCmd = &cobra.Command{
	Use:   "stats <name>",
	Short: "查看表的行数和列",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := warehouse.New(serverURL)
		s, err := client.TableStats(args[0], tableRefresh)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(s)
		}

		if !s.Exists {
			output.Warning("表 %s 不存在", s.Table)
			return nil
		}
		table := output.NewTable([]string{"TABLE", "ROWS", "COLUMNS", "CACHED", "UPDATED"})
		table.AddRow([]string{
			s.Table,
			strconv.FormatInt(s.RowCount, 10),
			strings.Join(s.Columns, ","),
			strconv.FormatBool(s.Cached),
			s.UpdatedAt.Local().Format(timeLayout),
		})
		table.Render()
		return nil
	},
}

func formatTimePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func init() {
	tableStatsCmd.Flags().BoolVar(&tableRefresh, "refresh", false, "跳过服务端缓存")

	scheduleCmd.AddCommand(scheduleListCmd)
	tableCmd.AddCommand(tableStatsCmd)
}
