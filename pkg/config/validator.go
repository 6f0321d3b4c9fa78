package config

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateConfig 校验配置合法性
func ValidateConfig(cfg *WarehouseConfig) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}
	w := &cfg.Warehouse

	if w.General.InstanceName == "" {
		return fmt.Errorf("instance_name不能为空")
	}
	if w.General.LogLevel != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[w.General.LogLevel] {
			return fmt.Errorf("log_level必须是debug/info/warn/error之一")
		}
	}

	db := w.Storage.Database
	validDBTypes := map[string]bool{
		"sqlite":     true,
		"sqlite3":    true,
		"postgres":   true,
		"postgresql": true,
		"mysql":      true,
	}
	if !validDBTypes[strings.ToLower(db.Type)] {
		return fmt.Errorf("database.type必须是sqlite/postgres/mysql之一")
	}
	if db.DSN == "" {
		return fmt.Errorf("database.dsn不能为空")
	}
	if db.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns必须大于0")
	}
	if db.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns不能为负数")
	}
	if !identifierPattern.MatchString(w.Storage.TablePrefix) {
		return fmt.Errorf("storage.table_prefix只能包含字母、数字和下划线")
	}

	if w.Execution.WorkerConcurrency <= 0 || w.Execution.WorkerConcurrency > 1000 {
		return fmt.Errorf("execution.worker_concurrency必须在1-1000之间")
	}
	if w.Execution.DefaultCallTimeout <= 0 {
		return fmt.Errorf("execution.default_call_timeout必须大于0")
	}
	if w.Execution.BatchSize <= 0 {
		return fmt.Errorf("execution.batch_size必须大于0")
	}
	if w.Execution.Retry.Enabled {
		r := w.Execution.Retry
		if r.MaxAttempts < 0 {
			return fmt.Errorf("execution.retry.max_attempts不能为负数")
		}
		if r.Delay < 0 || r.MaxDelay < 0 {
			return fmt.Errorf("execution.retry.delay和max_delay不能为负数")
		}
		if r.MaxDelay > 0 && r.Delay > r.MaxDelay {
			return fmt.Errorf("execution.retry.delay不能大于max_delay")
		}
	}

	if w.Server.Port <= 0 || w.Server.Port > 65535 {
		return fmt.Errorf("server.port必须在1-65535之间")
	}
	if w.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit不能为负数")
	}

	seen := make(map[string]bool, len(w.Sources))
	for i, s := range w.Sources {
		if err := validateSource(s); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: 数据源 %s 重复", i, s.Name)
		}
		seen[s.Name] = true
	}

	names := make(map[string]bool, len(w.Schedules))
	for i, s := range w.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedules[%d]: name不能为空", i)
		}
		if names[s.Name] {
			return fmt.Errorf("schedules[%d]: 定时任务 %s 重复", i, s.Name)
		}
		names[s.Name] = true
		if s.Cron == "" {
			return fmt.Errorf("schedules[%d]: cron不能为空", i)
		}
		if s.Source == "" {
			return fmt.Errorf("schedules[%d]: source不能为空", i)
		}
	}
	return nil
}

func validateSource(s SourceConfig) error {
	if s.Name == "" {
		return fmt.Errorf("name不能为空")
	}
	if s.URL == "" {
		return fmt.Errorf("数据源 %s 的url不能为空", s.Name)
	}
	switch strings.ToLower(s.Kind) {
	case "html":
		if s.TableIndex < 0 || s.HeaderRow < 0 {
			return fmt.Errorf("数据源 %s 的table_index和header_row不能为负数", s.Name)
		}
	case "json":
	default:
		return fmt.Errorf("数据源 %s 的kind必须是html/json之一", s.Name)
	}
	switch strings.ToLower(s.Encoding) {
	case "", "utf-8", "utf8", "gbk", "gb18030", "gb2312":
	default:
		return fmt.Errorf("数据源 %s 的encoding不支持: %s", s.Name, s.Encoding)
	}
	return nil
}
