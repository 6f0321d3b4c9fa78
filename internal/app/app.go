package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/LENAX/akshare-warehouse/internal/storage"
	"github.com/LENAX/akshare-warehouse/pkg/api"
	"github.com/LENAX/akshare-warehouse/pkg/config"
	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/core/cache"
	"github.com/LENAX/akshare-warehouse/pkg/core/engine"
	"github.com/LENAX/akshare-warehouse/pkg/core/events"
	"github.com/LENAX/akshare-warehouse/pkg/core/executor"
	"github.com/LENAX/akshare-warehouse/pkg/core/retry"
	"github.com/LENAX/akshare-warehouse/pkg/core/source"
	"github.com/LENAX/akshare-warehouse/pkg/sources"
	pkgstorage "github.com/LENAX/akshare-warehouse/pkg/storage"
)

// RegisterFunc 额外注册代码实现的数据源
type RegisterFunc func(registry *source.Registry) error

// App 由配置装配的完整服务（内部使用）
type App struct {
	Config   *config.WarehouseConfig
	Repos    *storage.Repositories
	Registry *source.Registry
	Cache    *cache.MemoryResultCache
	Bus      *events.Bus
	Engine   *engine.Engine
}

// New 按配置打开存储、注册数据源并创建引擎和定时任务
// 返回的App需要调用Close释放资源
func New(ctx context.Context, cfg *config.WarehouseConfig, extra ...RegisterFunc) (*App, error) {
	w := cfg.Warehouse
	db := w.Storage.Database

	repos, err := storage.Open(ctx, db.Type, db.DSN, pkgstorage.PoolConfig{
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
		ConnMaxIdleTime: db.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据仓库失败: %w", err)
	}
	a := &App{Config: cfg, Repos: repos, Registry: source.NewRegistry()}

	client := sources.NewClient(sources.ClientConfig{Timeout: w.Execution.DefaultCallTimeout})
	if err := sources.RegisterAll(a.Registry, w.Sources, client); err != nil {
		a.Close()
		return nil, err
	}
	for _, register := range extra {
		if err := register(a.Registry); err != nil {
			a.Close()
			return nil, fmt.Errorf("注册数据源失败: %w", err)
		}
	}

	a.Cache = cache.NewMemoryResultCacheWithInterval(w.Storage.Cache.CleanInterval)
	execOpts := []executor.Option{
		executor.WithMaxWorkers(w.Execution.WorkerConcurrency),
		executor.WithDefaultTimeout(w.Execution.DefaultCallTimeout),
	}
	if w.Storage.Cache.Enabled {
		execOpts = append(execOpts, executor.WithCache(a.Cache, w.Storage.Cache.DefaultTTL))
	}

	a.Bus = events.NewBus()
	a.Engine, err = engine.NewEngine(engine.Deps{
		Executor:   executor.NewExecutor(a.Registry, execOpts...),
		Pool:       repos.Pool,
		Writer:     repos.Writer,
		Executions: repos.Execution,
		Publisher:  a.Bus,
	},
		engine.WithRetryPolicy(RetryPolicy(w.Execution)),
		engine.WithBatchSize(w.Execution.BatchSize),
		engine.WithTablePrefix(w.Storage.TablePrefix),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("创建采集引擎失败: %w", err)
	}

	for _, sc := range w.Schedules {
		schedule, err := ScheduleFromConfig(sc)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := a.Engine.Scheduler().Register(schedule); err != nil {
			a.Close()
			return nil, fmt.Errorf("注册定时任务 %s 失败: %w", sc.Name, err)
		}
	}

	log.Printf("✅ [启动] %s: %s存储, %d个数据源, %d个定时任务",
		w.General.InstanceName, repos.Pool.Dialect().Name(), a.Registry.Len(), len(w.Schedules))
	return a, nil
}

// RetryPolicy 由执行配置生成重试策略，未启用时只执行一次
func RetryPolicy(cfg config.ExecutionConfig) retry.Policy {
	if !cfg.Retry.Enabled {
		return retry.Policy{MaxAttempts: 1, Retryable: acquisition.IsRetryable}
	}
	return retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.Delay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Retryable:   acquisition.IsRetryable,
	}
}

// ScheduleFromConfig 将定时任务配置转换为调度项
func ScheduleFromConfig(sc config.ScheduleConfig) (*engine.Schedule, error) {
	mode, err := pkgstorage.ParseWriteMode(sc.Mode)
	if err != nil {
		return nil, fmt.Errorf("定时任务 %s: %w", sc.Name, err)
	}
	return &engine.Schedule{
		Name:     strings.TrimSpace(sc.Name),
		CronExpr: sc.Cron,
		Request: acquisition.Request{
			Source:     sc.Source,
			Params:     sc.Params,
			Table:      sc.Table,
			Timeout:    sc.Timeout,
			Mode:       mode,
			UniqueKeys: sc.UniqueKeys,
		},
		Enabled: sc.IsEnabled(),
	}, nil
}

// Handler 创建HTTP路由
func (a *App) Handler(version string) http.Handler {
	s := a.Config.Warehouse.Server
	return api.SetupRouter(api.RouterConfig{
		Engine:     a.Engine,
		Subscriber: a.Bus,
		Cache:      a.Cache,
		CacheTTL:   a.Config.Warehouse.Storage.Cache.DefaultTTL,
		Version:    version,
		RateLimit:  s.RateLimit,
		RateBurst:  s.RateBurst,
	})
}

// ServerConfig 返回HTTP服务配置
func (a *App) ServerConfig() api.ServerConfig {
	s := a.Config.Warehouse.Server
	return api.ServerConfig{
		Host:         s.Host,
		Port:         s.Port,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}
}

// Close 停止引擎并释放资源
func (a *App) Close() {
	if a.Engine != nil {
		a.Engine.Stop()
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			log.Printf("⚠️ [启动] 关闭事件总线失败: %v", err)
		}
	}
	if a.Cache != nil {
		a.Cache.Stop()
	}
	if a.Repos != nil {
		if err := a.Repos.Close(); err != nil {
			log.Printf("⚠️ [启动] 关闭数据库失败: %v", err)
		}
	}
}
