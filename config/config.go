// Package config handles application configuration loading using Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	BodyLimitMB    int      `mapstructure:"body_limit_mb"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig contains the leaderboard cache connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig contains R2/S3 object storage settings for proof media.
type StorageConfig struct {
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	CDNBaseURL      string `mapstructure:"cdn_base_url"`
}

// GatewayConfig contains the service token shared with the API gateway.
type GatewayConfig struct {
	ServiceToken string `mapstructure:"service_token"`
}

// SchedulerConfig contains background job intervals.
type SchedulerConfig struct {
	ExpirySweepInterval        time.Duration `mapstructure:"expiry_sweep_interval"`
	LeaderboardRefreshInterval time.Duration `mapstructure:"leaderboard_refresh_interval"`
	LeaderboardCacheTTL        time.Duration `mapstructure:"leaderboard_cache_ttl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// Load reads configuration from config.yaml (if present) and environment
// variables prefixed with SAAF_ (e.g. SAAF_DATABASE_DSN).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/saafsaksham")

	v.SetEnvPrefix("SAAF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5300)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.body_limit_mb", 50)

	// Empty defaults register env-only keys with viper so Unmarshal can
	// see SAAF_* overrides for them.
	v.SetDefault("database.dsn", "")
	v.SetDefault("gateway.service_token", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.account_id", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.access_key_secret", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.cdn_base_url", "")

	v.SetDefault("scheduler.expiry_sweep_interval", time.Minute)
	v.SetDefault("scheduler.leaderboard_refresh_interval", time.Minute)
	v.SetDefault("scheduler.leaderboard_cache_ttl", 2*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (SAAF_DATABASE_DSN)")
	}
	if c.Gateway.ServiceToken == "" {
		return fmt.Errorf("gateway.service_token is required (SAAF_GATEWAY_SERVICE_TOKEN)")
	}
	return nil
}
