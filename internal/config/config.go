// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	HttpListenAddr string        `mapstructure:"http_listen_addr"`
	GrpcListenAddr string        `mapstructure:"grpc_listen_addr"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	Feed           FeedConfig    `mapstructure:"feed"`
	Storage        StorageConfig `mapstructure:"storage"`
	Tracing        TracingConfig `mapstructure:"tracing"`
}

type FeedConfig struct {
	JobsSource      string        `mapstructure:"jobs_source"`
	CompaniesSource string        `mapstructure:"companies_source"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	// RefreshSchedule is a cron spec; empty disables periodic reloads.
	RefreshSchedule string `mapstructure:"refresh_schedule"`
	Watch           bool   `mapstructure:"watch"`
}

type StorageConfig struct {
	Backend       string        `mapstructure:"backend"`
	EtcdEndpoints []string      `mapstructure:"etcd_endpoints"`
	EtcdTimeout   time.Duration `mapstructure:"etcd_timeout"`
	RedisURL      string        `mapstructure:"redis_url"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

const (
	StorageMemory = "memory"
	StorageEtcd   = "etcd"
	StorageRedis  = "redis"
)

// Load loads configuration from file and environment variables.
// Nested keys map to env vars with '_' (FEED_JOBS_SOURCE).
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("http_listen_addr", ":8080")
	v.SetDefault("grpc_listen_addr", ":9090")
	v.SetDefault("search_debounce", "300ms")
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("feed.jobs_source", "data/jobs.json")
	v.SetDefault("feed.companies_source", "data/companies.json")
	v.SetDefault("feed.timeout", "15s")
	v.SetDefault("feed.max_retries", 0)
	v.SetDefault("feed.retry_backoff", "1s")
	v.SetDefault("feed.refresh_schedule", "")
	v.SetDefault("feed.watch", false)
	v.SetDefault("storage.backend", StorageMemory)
	v.SetDefault("storage.etcd_endpoints", []string{"localhost:2379"})
	v.SetDefault("storage.etcd_timeout", "5s")
	v.SetDefault("storage.redis_url", "redis://localhost:6379/0")
	v.SetDefault("tracing.enabled", true)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults and env vars only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Feed.JobsSource == "" {
		return fmt.Errorf("feed.jobs_source is required")
	}
	if c.SearchDebounce <= 0 {
		return fmt.Errorf("search_debounce must be positive, got %s", c.SearchDebounce)
	}
	if c.Feed.MaxRetries < 0 {
		return fmt.Errorf("feed.max_retries cannot be negative")
	}
	switch c.Storage.Backend {
	case StorageMemory, StorageEtcd, StorageRedis:
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	return nil
}
