package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

var envNamePattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// Load 加载配置文件，展开${ENV}环境变量后解析、应用默认值并校验（对外导出）
func Load(path string) (*WarehouseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析YAML配置内容（对外导出）
func Parse(data []byte) (*WarehouseConfig, error) {
	expanded := expandEnv(string(data))

	var cfg WarehouseConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.ApplyDefaults()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return &cfg, nil
}

// expandEnv 展开全大写的${ENV}变量，其余占位符（如数据源模板参数${symbol}）保持原样
func expandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if envNamePattern.MatchString(name) {
			return os.Getenv(name)
		}
		return "${" + name + "}"
	})
}

// JoinHostPort 拼接监听地址
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
