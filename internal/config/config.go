// Package config loads the application configuration from a YAML file and
// overlays secrets from the environment so credentials never live in the
// checked-in config.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/clinicore/intake-api/internal/email"
	"github.com/clinicore/intake-api/internal/repository/postgres"
	"github.com/clinicore/intake-api/internal/service/aidecision"
	"github.com/clinicore/intake-api/pkg/logger"
	"github.com/clinicore/intake-api/pkg/messaging/redis"
)

type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Database  postgres.Config   `mapstructure:"database"`
	JWT       JWTConfig         `mapstructure:"jwt"`
	Redis     RedisConfig       `mapstructure:"redis"`
	AI        aidecision.Config `mapstructure:"ai"`
	SMTP      email.Config      `mapstructure:"smtp"`
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Logging   logger.Config     `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	RefreshSecret      string `mapstructure:"refresh_secret"`
	ExpiryHours        int    `mapstructure:"expiry_hours"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type RateLimitConfig struct {
	PublicRequestsPerSecond float64 `mapstructure:"public_requests_per_second"`
	PublicBurst             int     `mapstructure:"public_burst"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// secrets are the values that must come from the environment.
type secrets struct {
	DBPassword       string `envconfig:"DB_PASSWORD"`
	JWTSecret        string `envconfig:"JWT_SECRET"`
	JWTRefreshSecret string `envconfig:"JWT_REFRESH_SECRET"`
	AIAPIKey         string `envconfig:"AI_API_KEY"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var s secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if s.DBPassword != "" {
		config.Database.Password = s.DBPassword
	}
	if s.JWTSecret != "" {
		config.JWT.Secret = s.JWTSecret
	}
	if s.JWTRefreshSecret != "" {
		config.JWT.RefreshSecret = s.JWTRefreshSecret
	}
	if s.AIAPIKey != "" {
		config.AI.APIKey = s.AIAPIKey
	}
	if s.SMTPPassword != "" {
		config.SMTP.Password = s.SMTPPassword
	}

	return &config, nil
}

func (c RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
