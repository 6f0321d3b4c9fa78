package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LENAX/akshare-warehouse/internal/app"
	"github.com/LENAX/akshare-warehouse/pkg/api"
	"github.com/LENAX/akshare-warehouse/pkg/cli/output"
)

var (
	serverPort int
	serverHost string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理AKShare Warehouse HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动AKShare Warehouse HTTP API服务和定时采集。

示例：
  # 使用默认配置启动
  warehouse server start

  # 指定端口启动
  warehouse server start --port 8000

  # 指定配置文件启动
  warehouse server start --config ./configs/warehouse.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Warehouse.Server.Port = serverPort
		}
		if cmd.Flags().Changed("host") {
			cfg.Warehouse.Server.Host = serverHost
		}

		ctx := context.Background()
		a, err := app.New(ctx, cfg)
		if err != nil {
			output.Error("初始化失败: %v", err)
			return err
		}
		defer a.Close()

		if err := a.Engine.Start(ctx); err != nil {
			output.Error("启动引擎失败: %v", err)
			return err
		}

		apiServer := api.NewAPIServer(a.Handler(Version), a.ServerConfig())

		errCh := make(chan error, 1)
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Printf("API服务器错误: %v", err)
				errCh <- err
			}
		}()

		output.Success("AKShare Warehouse Server started on %s", apiServer.Addr())

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case err := <-errCh:
			return err
		}

		output.Info("正在关闭服务...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.ServerConfig().WriteTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭API服务器失败: %v", err)
		}

		output.Success("服务已停止")
		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 8000, "监听端口，覆盖配置文件")
	serverStartCmd.Flags().StringVarP(&serverHost, "host", "H", "0.0.0.0", "监听地址，覆盖配置文件")

	serverCmd.AddCommand(serverStartCmd)
}
