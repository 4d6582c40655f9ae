package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`    // 服务器配置
	Database  DatabaseConfig            `mapstructure:"database"`  // PostgreSQL配置
	Sync      SyncConfig                `mapstructure:"sync"`      // 导入调度配置
	Providers map[string]ProviderConfig `mapstructure:"providers"` // 多上游独立配置（v1/v2）
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SyncConfig 导入调度配置
type SyncConfig struct {
	Interval         time.Duration `mapstructure:"interval"`          // 定时导入间隔（默认5分钟）
	EnabledProviders []string      `mapstructure:"enabled_providers"` // 启用的上游列表（v1/v2）
	Workers          int           `mapstructure:"workers"`           // 导入任务工作协程数
	RangeMaxDays     int           `mapstructure:"range_max_days"`    // 区间导入最大天数
	RequestDelay     time.Duration `mapstructure:"request_delay"`     // 区间导入逐日请求间隔
	ManualTimeout    time.Duration `mapstructure:"manual_timeout"`    // 手动单日导入等待上限
	RangeTimeout     time.Duration `mapstructure:"range_timeout"`     // 区间导入整体等待上限
	SampleFile       string        `mapstructure:"sample_file"`       // 样例数据文件路径
}

// ProviderConfig 单个上游的独立配置
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"` // API基础地址
	Timeout int    `mapstructure:"timeout"`  // 请求超时（秒）
	Proxy   string `mapstructure:"proxy"`    // 代理地址
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	if v := os.Getenv("EXTERNAL_API_URL"); v != "" {
		p := cfg.Providers["v1"]
		p.BaseURL = v
		cfg.Providers["v1"] = p
	}
	if v := os.Getenv("EXTERNAL_API_URL_V2"); v != "" {
		p := cfg.Providers["v2"]
		p.BaseURL = v
		cfg.Providers["v2"] = p
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
}

// applyDefaults 调度相关字段缺省值
func applyDefaults(cfg *Config) {
	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = 5 * time.Minute
	}
	if cfg.Sync.Workers <= 0 {
		cfg.Sync.Workers = 2
	}
	if cfg.Sync.RangeMaxDays <= 0 {
		cfg.Sync.RangeMaxDays = 30
	}
	if cfg.Sync.RequestDelay <= 0 {
		cfg.Sync.RequestDelay = time.Second
	}
	if cfg.Sync.ManualTimeout <= 0 {
		cfg.Sync.ManualTimeout = 60 * time.Second
	}
	if cfg.Sync.RangeTimeout <= 0 {
		cfg.Sync.RangeTimeout = 300 * time.Second
	}
}

// HasConfiguredProvider 是否至少配置了一个上游地址
func (c *Config) HasConfiguredProvider() bool {
	for _, p := range c.Providers {
		if p.BaseURL != "" {
			return true
		}
	}
	return false
}
