package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/LENAX/akshare-warehouse/pkg/cli/output"
	"github.com/LENAX/akshare-warehouse/pkg/cli/warehouse"
)

var sourceCategory string

// sourceCmd source子命令
var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "数据源管理命令",
	Long:  `查看服务端已注册的数据源及其参数。`,
}

// sourceListCmd 列出数据源
var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出数据源",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := warehouse.New(serverURL)
		result, err := client.ListSources(sourceCategory)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无数据源")
			return nil
		}

		table := output.NewTable([]string{"NAME", "CATEGORY", "PARAMS", "DESCRIPTION"})
		for _, s := range result.Items {
			names := make([]string, 0, len(s.Parameters))
			for _, p := range s.Parameters {
				if p.Required {
					names = append(names, p.Name+"*")
				} else {
					names = append(names, p.Name)
				}
			}
			table.AddRow([]string{s.Name, s.Category, orDash(strings.Join(names, ",")), orDash(s.Description)})
		}
		table.Render()
		output.Info("共 %d 个数据源", result.Total)
		return nil
	},
}

// sourceGetCmd 查看数据源详情
var sourceGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "查看数据源参数",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := warehouse.New(serverURL)
		s, err := client.GetSource(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(s)
		}

		output.Info("%s (%s) %s", s.Name, s.Category, s.Description)
		if len(s.Parameters) == 0 {
			return nil
		}
		table := output.NewTable([]string{"PARAM", "TYPE", "REQUIRED", "DEFAULT", "DESCRIPTION"})
		for _, p := range s.Parameters {
			required := "no"
			if p.Required {
				required = "yes"
			}
			def := "-"
			if p.Default != nil {
				def = formatAny(p.Default)
			}
			table.AddRow([]string{p.Name, orDash(p.Type), required, def, orDash(p.Description)})
		}
		table.Render()
		return nil
	},
}

func init() {
	sourceListCmd.Flags().StringVar(&sourceCategory, "category", "", "按分类过滤（stock/fund/futures/index/bond/forex/economic/macro）")

	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceGetCmd)
}
