// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 结算核心的全量配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// 雪花 ID 节点号
	NodeID int64 `mapstructure:"node_id"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 批次拍卖配置
	Auction AuctionConfig `mapstructure:"auction"`
	// 预言机阻尼配置
	Damper DamperConfig `mapstructure:"damper"`
	// 熔断器配置
	Breaker BreakerConfig `mapstructure:"breaker"`
	// 协议级参数边界
	Protocol ProtocolConfig `mapstructure:"protocol"`
	// 授权账户
	Auth AuthConfig `mapstructure:"auth"`
	// HTTP 限流配置
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// RateLimitConfig HTTP 限流配置（按客户端 IP）
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	QPS     int  `mapstructure:"qps"`
	Burst   int  `mapstructure:"burst"`
}

// AuthConfig 授权账户列表
type AuthConfig struct {
	// Executors 允许执行批次结算的账户
	Executors []string `mapstructure:"executors"`
	// Admins 允许调整协议参数与重置熔断器的账户
	Admins []string `mapstructure:"admins"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    int    `mapstructure:"conn_max_lifetime"`
	LogEnabled         bool   `mapstructure:"log_enabled"`
	SlowQueryThreshold int    `mapstructure:"slow_query_threshold"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	SessionTimeout int      `mapstructure:"session_timeout"`
	MaxRetries     int      `mapstructure:"max_retries"`
	RetryBackoff   int      `mapstructure:"retry_backoff"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// AuctionConfig 批次拍卖的阶段时长与保证金下限
type AuctionConfig struct {
	// COMMIT 阶段时长（秒）
	CommitDuration int64 `mapstructure:"commit_duration"`
	// REVEAL 阶段时长（秒）
	RevealDuration int64 `mapstructure:"reveal_duration"`
	// 提交承诺所需的最小保证金（1e18 基数单位）
	MinBond string `mapstructure:"min_bond"`
}

// DamperConfig 参考价阻尼配置
type DamperConfig struct {
	// 基准最大偏离（bps）
	MaxDeviationBps int64 `mapstructure:"max_deviation_bps"`
	// 参考价最大可信时长（秒），超过视为过期
	MaxSampleAge int64 `mapstructure:"max_sample_age"`
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	// 滚动窗口长度（秒）
	WindowSeconds int64 `mapstructure:"window_seconds"`
	// 窗口内累计名义成交额阈值（1e18 基数单位）
	NotionalThreshold string `mapstructure:"notional_threshold"`
	// 触发后冷却时长（秒）
	CooldownSeconds int64 `mapstructure:"cooldown_seconds"`
	// 闪电贷防护的周期长度（秒）
	GuardPeriodSeconds int64 `mapstructure:"guard_period_seconds"`
}

// ProtocolConfig 协议级参数边界，管理员配置超出边界直接拒绝
type ProtocolConfig struct {
	// 手续费上限（bps）
	MaxFeeBps int64 `mapstructure:"max_fee_bps"`
	// 稳定曲线放大系数下限
	MinAmplification int64 `mapstructure:"min_amplification"`
	// 稳定曲线放大系数上限
	MaxAmplification int64 `mapstructure:"max_amplification"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

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
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.Auction.CommitDuration <= 0 || c.Auction.RevealDuration <= 0 {
		return fmt.Errorf("auction phase durations must be positive")
	}
	if c.Damper.MaxDeviationBps < 0 || c.Damper.MaxDeviationBps > 10000 {
		return fmt.Errorf("invalid damper max_deviation_bps: %d", c.Damper.MaxDeviationBps)
	}
	if c.Protocol.MaxFeeBps <= 0 || c.Protocol.MaxFeeBps >= 10000 {
		return fmt.Errorf("invalid protocol max_fee_bps: %d", c.Protocol.MaxFeeBps)
	}
	if c.Protocol.MinAmplification < 1 || c.Protocol.MaxAmplification > 10000 ||
		c.Protocol.MinAmplification > c.Protocol.MaxAmplification {
		return fmt.Errorf("invalid amplification bounds: [%d, %d]",
			c.Protocol.MinAmplification, c.Protocol.MaxAmplification)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("node_id", 1)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.session_timeout", 10)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("auction.commit_duration", 30)
	v.SetDefault("auction.reveal_duration", 30)
	v.SetDefault("auction.min_bond", "1000000000000000000")

	v.SetDefault("damper.max_deviation_bps", 200)
	v.SetDefault("damper.max_sample_age", 60)

	v.SetDefault("breaker.window_seconds", 300)
	v.SetDefault("breaker.notional_threshold", "1000000000000000000000000")
	v.SetDefault("breaker.cooldown_seconds", 600)
	v.SetDefault("breaker.guard_period_seconds", 1)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.qps", 100)
	v.SetDefault("ratelimit.burst", 200)

	v.SetDefault("protocol.max_fee_bps", 100)
	v.SetDefault("protocol.min_amplification", 1)
	v.SetDefault("protocol.max_amplification", 10000)
}
