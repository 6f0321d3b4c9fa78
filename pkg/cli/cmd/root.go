package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LENAX/akshare-warehouse/pkg/config"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
	configPath string
)

// defaultConfigPaths 未指定--config时依次查找
var defaultConfigPaths = []string{
	"./configs/warehouse.yaml",
	"./config/warehouse.yaml",
	"./warehouse.yaml",
}

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "AKShare Warehouse CLI - 金融数据采集入库工具",
	Long: `AKShare Warehouse CLI 用于采集金融数据源并写入数据仓库。

支持的功能：
  - 本地执行一次采集（读取配置文件，直接写库）
  - 查看数据源、执行记录、执行统计和定时任务（通过HTTP API）
  - 启动HTTP API服务

使用示例：
  # 按配置采集一次
  warehouse acquire stock_zh_a_spot --config ./configs/warehouse.yaml

  # 带参数并以upsert方式写入
  warehouse acquire stock_zh_a_hist -p symbol=600000 -p start_date=20240101 --mode upsert --keys date

  # 查看失败的执行记录
  warehouse execution list --status failed

  # 启动HTTP服务
  warehouse server start --port 8000`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8000", "Warehouse服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")

	// 添加子命令
	rootCmd.AddCommand(acquireCmd)
	rootCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(executionCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig 加载--config指定的配置，未指定时查找默认路径
func loadConfig() (*config.WarehouseConfig, error) {
	path := configPath
	if path == "" {
		for _, p := range defaultConfigPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		return nil, fmt.Errorf("未找到配置文件，请使用 --config 指定")
	}
	return config.Load(path)
}
