// Package config provides configuration management for pressrun. Values are
// loaded from a YAML file, environment variables, and defaults via Viper,
// with environment variables taking precedence over the file.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/fetcher"
	"github.com/pressrun/pressrun/internal/logger"
)

// Default configuration values
const (
	DefaultPageLimit             = 5
	DefaultRecencyWindowHours    = 24
	DefaultExtractionConcurrency = 3
	DefaultUploadBatchSize       = 25
	DefaultKnownURLSeedLimit     = 2000
	DefaultPageDelay             = 1 * time.Second
	DefaultRequestTimeout        = 30 * time.Second
	DefaultMaxRetries            = 3
	DefaultRetryDelay            = 2 * time.Second
	DefaultScheduleSpec          = "0 * * * *"
	DefaultStatusAddress         = ":8080"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// CrawlConfig holds the settings for one pipeline run.
type CrawlConfig struct {
	// Source is the listing URL pagination starts from.
	Source string `mapstructure:"source"`
	// Parser selects the listing parser: "wpblock" or "rss".
	Parser string `mapstructure:"parser"`
	// PageLimit caps how many listing pages a run may fetch.
	PageLimit int `mapstructure:"page_limit"`
	// MaxArticles caps discovered articles per run (0 = no cap).
	MaxArticles int `mapstructure:"max_articles"`
	// RecencyWindowHours bounds how old an admitted article may be.
	RecencyWindowHours int `mapstructure:"recency_window_hours"`
	// ExtractionConcurrency is the extraction worker count.
	ExtractionConcurrency int `mapstructure:"extraction_concurrency"`
	// UploadBatchSize is the number of records per store upsert.
	UploadBatchSize int `mapstructure:"upload_batch_size"`
	// PageDelay is the pause between listing page fetches.
	PageDelay time.Duration `mapstructure:"page_delay"`
	// KnownURLSeedLimit caps how many stored URLs seed the deduplicator.
	KnownURLSeedLimit int `mapstructure:"known_url_seed_limit"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// SchedulerConfig holds the settings for scheduled runs.
type SchedulerConfig struct {
	// Schedule is a cron expression for periodic runs.
	Schedule string `mapstructure:"schedule"`
	// StatusAddress is the listen address of the status HTTP server.
	StatusAddress string `mapstructure:"status_address"`
	// RunOnStart triggers a run immediately at scheduler startup.
	RunOnStart bool `mapstructure:"run_on_start"`
}

// OutputConfig holds local backup writer settings.
type OutputConfig struct {
	// Directory receives backup files; empty disables backups.
	Directory string `mapstructure:"directory"`
	// Format is one of "json", "csv", or "text".
	Format string `mapstructure:"format"`
}

// Config is the root application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    logger.Config   `mapstructure:"logger"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	Fetcher   fetcher.Config  `mapstructure:"fetcher"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Output    OutputConfig    `mapstructure:"output"`
}

// Validate checks the configuration sections used by every command.
func (c *Config) Validate() error {
	if c.Crawl.Source == "" {
		return fmt.Errorf("%w: crawl.source is required", domain.ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(c.Crawl.Source); err != nil {
		return fmt.Errorf("%w: crawl.source is not a valid url: %v", domain.ErrInvalidConfig, err)
	}
	if c.Crawl.Parser != "wpblock" && c.Crawl.Parser != "rss" {
		return fmt.Errorf("%w: crawl.parser must be wpblock or rss, got %q", domain.ErrInvalidConfig, c.Crawl.Parser)
	}
	if c.Crawl.PageLimit < 1 {
		return fmt.Errorf("%w: crawl.page_limit must be positive", domain.ErrInvalidConfig)
	}
	if c.Crawl.RecencyWindowHours < 1 {
		return fmt.Errorf("%w: crawl.recency_window_hours must be positive", domain.ErrInvalidConfig)
	}
	if c.Crawl.ExtractionConcurrency < 1 {
		return fmt.Errorf("%w: crawl.extraction_concurrency must be positive", domain.ErrInvalidConfig)
	}
	if c.Crawl.UploadBatchSize < 1 {
		return fmt.Errorf("%w: crawl.upload_batch_size must be positive", domain.ErrInvalidConfig)
	}
	if c.Crawl.PageDelay < 0 {
		return fmt.Errorf("%w: crawl.page_delay must be non-negative", domain.ErrInvalidConfig)
	}
	switch c.Output.Format {
	case "", "json", "csv", "text":
	default:
		return fmt.Errorf("%w: output.format must be json, csv, or text, got %q", domain.ErrInvalidConfig, c.Output.Format)
	}
	return nil
}

// ValidateDatabase checks the database section. Separate from Validate so
// commands that never touch the store can run without one configured.
func (c *Config) ValidateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("%w: database.host is required", domain.ErrInvalidConfig)
	}
	if c.Database.User == "" {
		return fmt.Errorf("%w: database.user is required", domain.ErrInvalidConfig)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("%w: database.dbname is required", domain.ErrInvalidConfig)
	}
	return nil
}

// Load unmarshals the root configuration from the given Viper instance and
// validates it. SetDefaults must have been applied to v beforehand.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies production-safe defaults to the given Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app", map[string]any{
		"name":        "pressrun",
		"environment": "production",
		"debug":       false,
	})

	v.SetDefault("logger", map[string]any{
		"level":       "info",
		"encoding":    "json",
		"development": false,
	})

	v.SetDefault("crawl", map[string]any{
		"parser":                 "wpblock",
		"page_limit":             DefaultPageLimit,
		"max_articles":           0,
		"recency_window_hours":   DefaultRecencyWindowHours,
		"extraction_concurrency": DefaultExtractionConcurrency,
		"upload_batch_size":      DefaultUploadBatchSize,
		"page_delay":             DefaultPageDelay.String(),
		"known_url_seed_limit":   DefaultKnownURLSeedLimit,
	})

	v.SetDefault("fetcher", map[string]any{
		"user_agent":      fetcher.DefaultUserAgent,
		"request_timeout": DefaultRequestTimeout.String(),
		"max_retries":     DefaultMaxRetries,
		"retry_delay":     DefaultRetryDelay.String(),
	})

	v.SetDefault("database", map[string]any{
		"host":              "localhost",
		"port":              "5432",
		"user":              "postgres",
		"dbname":            "pressrun",
		"sslmode":           "disable",
		"max_open_conns":    10,
		"max_idle_conns":    5,
		"conn_max_lifetime": "30m",
	})

	v.SetDefault("scheduler", map[string]any{
		"schedule":       DefaultScheduleSpec,
		"status_address": DefaultStatusAddress,
		"run_on_start":   false,
	})

	v.SetDefault("output", map[string]any{
		"directory": "",
		"format":    "json",
	})
}

// BindEnvVars maps well-known environment variables onto config keys.
func BindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"app.environment":    {"APP_ENV"},
		"app.debug":          {"APP_DEBUG"},
		"logger.level":       {"LOG_LEVEL"},
		"logger.encoding":    {"LOG_FORMAT"},
		"crawl.source":       {"CRAWL_SOURCE"},
		"database.host":      {"DB_HOST"},
		"database.port":      {"DB_PORT"},
		"database.user":      {"DB_USER"},
		"database.password":  {"DB_PASSWORD"},
		"database.dbname":    {"DB_NAME"},
		"database.sslmode":   {"DB_SSLMODE"},
		"scheduler.schedule": {"SCHEDULE_CRON"},
		"output.directory":   {"OUTPUT_DIR"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}
