// Package config 提供 TOML 配置加载、环境变量覆盖、配置热更与校验
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/wyfcoding/optionsengine/pkg/cache"
	"github.com/wyfcoding/optionsengine/pkg/logger"
)

// Config 服务配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// 雪花 ID 节点号，多实例部署时需各不相同
	NodeID int64 `mapstructure:"node_id"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 日志配置
	Logger logger.Config `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 定价引擎配置
	Pricing PricingConfig `mapstructure:"pricing"`
	// 蒙特卡洛模拟配置
	Simulation SimulationConfig `mapstructure:"simulation"`
	// Redis 配置，仅当 simulation.store = "redis" 时使用
	Redis cache.Config `mapstructure:"redis"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host"`
	// 监听端口
	Port int `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
	// 限流
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 令牌桶限流配置
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	QPS     float64 `mapstructure:"qps"`
	Burst   int     `mapstructure:"burst"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// Prometheus 监听端口
	Port int `mapstructure:"port"`
	// 指标路径
	Path string `mapstructure:"path"`
}

// PricingConfig 定价引擎配置
type PricingConfig struct {
	// 二叉树步数
	BinomialSteps int `mapstructure:"binomial_steps"`
	// 有限差分步长
	FDBump float64 `mapstructure:"fd_bump"`
	// 输出小数位数，至少为 1
	OutputPrecision int32 `mapstructure:"output_precision"`
}

// SimulationConfig 模拟配置
type SimulationConfig struct {
	// 工作协程数，0 表示 GOMAXPROCS
	Workers int `mapstructure:"workers"`
	// 单次请求允许的最大路径数
	MaxPaths int `mapstructure:"max_paths"`
	// 请求未指定时的时间步数
	DefaultSteps int `mapstructure:"default_steps"`
	// 单条路径允许的最大时间步数
	MaxSteps int `mapstructure:"max_steps"`
	// 模拟结果存储：memory 或 redis
	Store string `mapstructure:"store"`
	// memory 存储保留的最近结果数
	RetainedRuns int `mapstructure:"retained_runs"`
	// 结果保留时长（秒），redis 存储使用
	ResultTTL int `mapstructure:"result_ttl"`
}

// Load 从 TOML 文件加载配置，文件不存在时使用默认值，支持 APP_ 前缀环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

// Watch 监听配置文件变化，校验通过后回调新配置
func Watch(configPath string, onChange func(*Config)) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		logger.Warn(context.Background(), "config watch disabled", "path", configPath, "error", err)
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			logger.Error(context.Background(), "config reload rejected", "file", e.Name, "error", err)
			return
		}
		logger.Info(context.Background(), "config reloaded", "file", e.Name, "op", e.Op.String())
		onChange(cfg)
	})
	v.WatchConfig()
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// 环境变量覆盖，使用 _ 替代 .
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}
	if c.HTTP.RateLimit.Enabled && (c.HTTP.RateLimit.QPS <= 0 || c.HTTP.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit qps and burst must be positive")
	}
	if c.Pricing.BinomialSteps <= 0 {
		return fmt.Errorf("invalid binomial_steps: %d", c.Pricing.BinomialSteps)
	}
	if c.Pricing.FDBump <= 0 {
		return fmt.Errorf("invalid fd_bump: %v", c.Pricing.FDBump)
	}
	if c.Pricing.OutputPrecision < 1 {
		return fmt.Errorf("invalid output_precision: %d", c.Pricing.OutputPrecision)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("invalid simulation workers: %d", c.Simulation.Workers)
	}
	if c.Simulation.MaxPaths <= 0 || c.Simulation.DefaultSteps <= 0 {
		return fmt.Errorf("simulation max_paths and default_steps must be positive")
	}
	if c.Simulation.MaxSteps < c.Simulation.DefaultSteps {
		return fmt.Errorf("simulation max_steps %d is below default_steps %d", c.Simulation.MaxSteps, c.Simulation.DefaultSteps)
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("invalid node_id: %d", c.NodeID)
	}
	switch c.Simulation.Store {
	case "memory":
		if c.Simulation.RetainedRuns <= 0 {
			return fmt.Errorf("invalid simulation retained_runs: %d", c.Simulation.RetainedRuns)
		}
	case "redis":
		if c.Redis.Host == "" || c.Simulation.ResultTTL <= 0 {
			return fmt.Errorf("redis store needs redis.host and a positive simulation.result_ttl")
		}
	default:
		return fmt.Errorf("unknown simulation store: %q", c.Simulation.Store)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "optionsengine")
	v.SetDefault("version", "dev")
	v.SetDefault("environment", "dev")
	v.SetDefault("node_id", 1)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 60)
	v.SetDefault("http.rate_limit.enabled", false)
	v.SetDefault("http.rate_limit.qps", 100)
	v.SetDefault("http.rate_limit.burst", 200)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/optionsengine.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("pricing.binomial_steps", 200)
	v.SetDefault("pricing.fd_bump", 1e-3)
	v.SetDefault("pricing.output_precision", 10)

	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.max_paths", 1000000)
	v.SetDefault("simulation.default_steps", 252)
	v.SetDefault("simulation.max_steps", 10000)
	v.SetDefault("simulation.store", "memory")
	v.SetDefault("simulation.retained_runs", 256)
	v.SetDefault("simulation.result_ttl", 3600)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)
}
