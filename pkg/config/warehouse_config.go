package config

import (
	"time"
)

// WarehouseConfig 数据仓库服务配置（对外导出）
type WarehouseConfig struct {
	Warehouse struct {
		General   GeneralConfig    `yaml:"general"`
		Storage   StorageConfig    `yaml:"storage"`
		Execution ExecutionConfig  `yaml:"execution"`
		Server    ServerConfig     `yaml:"server"`
		Sources   []SourceConfig   `yaml:"sources"`
		Schedules []ScheduleConfig `yaml:"schedules"`
	} `yaml:"warehouse"`
}

// GeneralConfig 通用配置
type GeneralConfig struct {
	InstanceName string `yaml:"instance_name"`
	LogLevel     string `yaml:"log_level"`
	Env          string `yaml:"env"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Database struct {
		Type            string        `yaml:"type"`
		DSN             string        `yaml:"dsn"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	} `yaml:"database"`
	Cache struct {
		Enabled       bool          `yaml:"enabled"`
		DefaultTTL    time.Duration `yaml:"default_ttl"`
		CleanInterval time.Duration `yaml:"clean_interval"`
	} `yaml:"cache"`
	TablePrefix string `yaml:"table_prefix"`
}

// ExecutionConfig 执行配置
type ExecutionConfig struct {
	DefaultCallTimeout time.Duration `yaml:"default_call_timeout"`
	BatchSize          int           `yaml:"batch_size"`
	WorkerConcurrency  int           `yaml:"worker_concurrency"`
	Retry              struct {
		Enabled     bool          `yaml:"enabled"`
		MaxAttempts int           `yaml:"max_attempts"`
		Delay       time.Duration `yaml:"delay"`
		MaxDelay    time.Duration `yaml:"max_delay"`
	} `yaml:"retry"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	RateLimit    float64       `yaml:"rate_limit"` // 每个客户端每秒请求数，<=0不限流
	RateBurst    int           `yaml:"rate_burst"`
}

// SourceConfig 声明式HTTP数据源（对外导出）
type SourceConfig struct {
	Name        string            `yaml:"name"`
	Kind        string            `yaml:"kind"` // html/json
	Category    string            `yaml:"category"`
	Description string            `yaml:"description"`
	URL         string            `yaml:"url"`
	Query       map[string]string `yaml:"query"`
	Headers     map[string]string `yaml:"headers"`
	Encoding    string            `yaml:"encoding"` // utf-8/gbk/gb18030
	Params      []ParamConfig     `yaml:"params"`
	Renames     map[string]string `yaml:"renames"`
	RateLimit   float64           `yaml:"rate_limit"`

	// html
	Selector   string `yaml:"selector"`
	TableIndex int    `yaml:"table_index"`
	HeaderRow  int    `yaml:"header_row"`

	// json
	RecordsPath string   `yaml:"records_path"`
	Fields      []string `yaml:"fields"`
	Delimiter   string   `yaml:"delimiter"` // 记录为字符串时的分隔符
}

// ParamConfig 数据源参数声明
type ParamConfig struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
	Description string `yaml:"description"`
}

// ScheduleConfig 定时采集任务（对外导出）
type ScheduleConfig struct {
	Name       string                 `yaml:"name"`
	Cron       string                 `yaml:"cron"`
	Source     string                 `yaml:"source"`
	Table      string                 `yaml:"table"`
	Params     map[string]interface{} `yaml:"params"`
	Mode       string                 `yaml:"mode"`
	UniqueKeys []string               `yaml:"unique_keys"`
	Timeout    time.Duration          `yaml:"timeout"`
	Enabled    *bool                  `yaml:"enabled"`
}

// IsEnabled 未设置enabled时视为启用
func (s ScheduleConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// GetDatabaseType 获取数据库类型
func (c *WarehouseConfig) GetDatabaseType() string {
	return c.Warehouse.Storage.Database.Type
}

// GetDatabaseDSN 获取数据库DSN
func (c *WarehouseConfig) GetDatabaseDSN() string {
	return c.Warehouse.Storage.Database.DSN
}

// GetAddr 获取HTTP监听地址
func (c *WarehouseConfig) GetAddr() string {
	return JoinHostPort(c.Warehouse.Server.Host, c.Warehouse.Server.Port)
}

// ApplyDefaults 应用默认值
func (c *WarehouseConfig) ApplyDefaults() {
	w := &c.Warehouse

	if w.General.InstanceName == "" {
		w.General.InstanceName = "akshare-warehouse"
	}
	if w.General.LogLevel == "" {
		w.General.LogLevel = "info"
	}
	if w.General.Env == "" {
		w.General.Env = "dev"
	}

	db := &w.Storage.Database
	if db.Type == "" {
		db.Type = "mysql"
	}
	if db.MaxOpenConns <= 0 {
		db.MaxOpenConns = 10
	}
	if db.MaxIdleConns <= 0 {
		db.MaxIdleConns = 5
	}
	if db.ConnMaxLifetime <= 0 {
		db.ConnMaxLifetime = 2 * time.Hour
	}
	if db.ConnMaxIdleTime <= 0 {
		db.ConnMaxIdleTime = 1 * time.Hour
	}

	if w.Storage.Cache.DefaultTTL <= 0 {
		w.Storage.Cache.DefaultTTL = 5 * time.Minute
	}
	if w.Storage.Cache.CleanInterval <= 0 {
		w.Storage.Cache.CleanInterval = time.Minute
	}
	if w.Storage.TablePrefix == "" {
		w.Storage.TablePrefix = "ak_"
	}

	if w.Execution.DefaultCallTimeout <= 0 {
		w.Execution.DefaultCallTimeout = 120 * time.Second
	}
	if w.Execution.BatchSize <= 0 {
		w.Execution.BatchSize = 1000
	}
	if w.Execution.WorkerConcurrency <= 0 {
		w.Execution.WorkerConcurrency = 10
	}
	if w.Execution.Retry.MaxAttempts <= 0 {
		w.Execution.Retry.MaxAttempts = 3
	}
	if w.Execution.Retry.Delay <= 0 {
		w.Execution.Retry.Delay = 1 * time.Second
	}
	if w.Execution.Retry.MaxDelay <= 0 {
		w.Execution.Retry.MaxDelay = 30 * time.Second
	}

	if w.Server.Host == "" {
		w.Server.Host = "0.0.0.0"
	}
	if w.Server.Port <= 0 {
		w.Server.Port = 8000
	}
	if w.Server.ReadTimeout <= 0 {
		w.Server.ReadTimeout = 30 * time.Second
	}
	if w.Server.WriteTimeout <= 0 {
		w.Server.WriteTimeout = 15 * time.Minute
	}
	if w.Server.RateBurst <= 0 {
		w.Server.RateBurst = 20
	}

	for i := range w.Sources {
		if w.Sources[i].Kind == "" {
			w.Sources[i].Kind = "html"
		}
	}
}
