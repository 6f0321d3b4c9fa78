package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LENAX/akshare-warehouse/internal/app"
	"github.com/LENAX/akshare-warehouse/pkg/api"
	"github.com/LENAX/akshare-warehouse/pkg/config"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./configs/warehouse.yaml", "配置文件路径")
	host := flag.String("host", "", "监听地址，覆盖配置文件")
	port := flag.Int("port", 0, "监听端口，覆盖配置文件")
	flag.Parse()

	log.Printf("AKShare Warehouse Server v%s (%s, %s)", Version, GitCommit, BuildTime)
	log.Printf("配置文件: %s", *configPath)

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *host != "" {
		cfg.Warehouse.Server.Host = *host
	}
	if *port > 0 {
		cfg.Warehouse.Server.Port = *port
	}

	// 2. 装配存储、数据源和引擎
	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	// 3. 启动引擎和定时任务
	if err := a.Engine.Start(ctx); err != nil {
		a.Close()
		log.Fatalf("启动引擎失败: %v", err)
	}

	// 4. 创建并启动API服务器
	apiServer := api.NewAPIServer(a.Handler(Version), a.ServerConfig())
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API服务器错误: %v", err)
		}
	}()

	log.Printf("✅ AKShare Warehouse Server started on %s", apiServer.Addr())

	// 5. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 6. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.ServerConfig().WriteTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭API服务器失败: %v", err)
	}

	a.Close()
	log.Println("✅ 服务已停止")
}
