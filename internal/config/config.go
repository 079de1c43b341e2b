// Package config loads and validates lead scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreWebhook  = "webhook"
)

// Blob storage backends.
const (
	BlobMemory = "memory"
	BlobLocal  = "local"
	BlobGCS    = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Export    ExportConfig    `mapstructure:"export"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Targets   []lead.Target   `mapstructure:"targets"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScraperConfig governs fetching and pacing.
type ScraperConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRedirects   int    `mapstructure:"max_redirects"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
	PacingMinMs    int    `mapstructure:"pacing_min_ms"`
	PacingMaxMs    int    `mapstructure:"pacing_max_ms"`
	PhoneRegion    string `mapstructure:"phone_region"`
}

// ScheduleConfig controls the recurring scrape cycle.
type ScheduleConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	InitialDelaySeconds int  `mapstructure:"initial_delay_seconds"`
	IntervalHours       int  `mapstructure:"interval_hours"`
}

// RateLimitConfig configures the per-host token bucket.
type RateLimitConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DefaultRPS   float64 `mapstructure:"default_rps"`
	DefaultBurst int     `mapstructure:"default_burst"`
}

// HeadlessConfig configures headless promotion.
type HeadlessConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	MaxParallel        int  `mapstructure:"max_parallel"`
	NavTimeoutSeconds  int  `mapstructure:"nav_timeout_seconds"`
	PromotionThreshold int  `mapstructure:"promotion_threshold"`
}

// StoreConfig selects the lead store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig controls access to Postgres.
type DatabaseConfig struct {
	DSN                    string `mapstructure:"dsn"`
	Table                  string `mapstructure:"table"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
}

// WebhookConfig points the webhook store at its remote.
type WebhookConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StorageConfig sets the blob backend used for export snapshots.
type StorageConfig struct {
	Backend string             `mapstructure:"backend"`
	Bucket  string             `mapstructure:"bucket"`
	Prefix  string             `mapstructure:"prefix"`
	Local   LocalStorageConfig `mapstructure:"local"`
}

// LocalStorageConfig configures filesystem snapshots.
type LocalStorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// ExportConfig toggles archiving after scheduled cycles.
type ExportConfig struct {
	ArchiveEnabled bool `mapstructure:"archive_enabled"`
}

// PubSubConfig holds metadata for cycle notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is honored for hosted platforms; LEADS_SERVER_PORT wins when both are set.
	_ = v.BindEnv("server.port", "LEADS_SERVER_PORT", "PORT")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 10000)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("logging.development", false)
	v.SetDefault("scraper.user_agent", "")
	v.SetDefault("scraper.timeout_seconds", 15)
	v.SetDefault("scraper.max_redirects", 5)
	v.SetDefault("scraper.respect_robots", false)
	v.SetDefault("scraper.pacing_min_ms", 2000)
	v.SetDefault("scraper.pacing_max_ms", 5000)
	v.SetDefault("scraper.phone_region", lead.DefaultPhoneRegion)
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.initial_delay_seconds", 5)
	v.SetDefault("schedule.interval_hours", 6)
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.default_rps", 1.0)
	v.SetDefault("rate_limit.default_burst", 1)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "leads")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_lifetime_minutes", 30)
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout_seconds", 30)
	v.SetDefault("storage.backend", BlobMemory)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "exports")
	v.SetDefault("storage.local.base_dir", "data/exports")
	v.SetDefault("export.archive_enabled", false)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRedirects < 0 {
		return fmt.Errorf("scraper.max_redirects must be >= 0")
	}
	if c.Scraper.PacingMinMs < 0 || c.Scraper.PacingMaxMs < c.Scraper.PacingMinMs {
		return fmt.Errorf("scraper.pacing_max_ms must be >= scraper.pacing_min_ms >= 0")
	}
	if c.Schedule.InitialDelaySeconds < 0 {
		return fmt.Errorf("schedule.initial_delay_seconds must be >= 0")
	}
	if c.Schedule.IntervalHours <= 0 {
		return fmt.Errorf("schedule.interval_hours must be > 0")
	}
	if c.RateLimit.Enabled && c.RateLimit.DefaultRPS <= 0 {
		return fmt.Errorf("rate_limit.default_rps must be > 0 when rate limiting is enabled")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn must be set when store.backend is postgres")
		}
	case StoreWebhook:
		if c.Webhook.URL == "" {
			return fmt.Errorf("webhook.url must be set when store.backend is webhook")
		}
	default:
		return fmt.Errorf("store.backend %q is not one of memory, postgres, webhook", c.Store.Backend)
	}
	switch c.Storage.Backend {
	case BlobMemory, BlobLocal:
	case BlobGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket must be set when storage.backend is gcs")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, local, gcs", c.Storage.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	for i, t := range c.Targets {
		if t.URL == "" {
			return fmt.Errorf("targets[%d].url is required", i)
		}
	}
	return nil
}

// FetchTimeout is the per-request scrape timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// PacingRange returns the bounds of the random delay between fetches.
func (c Config) PacingRange() (time.Duration, time.Duration) {
	return time.Duration(c.Scraper.PacingMinMs) * time.Millisecond,
		time.Duration(c.Scraper.PacingMaxMs) * time.Millisecond
}

// InitialDelay is the wait before the first scheduled cycle.
func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.Schedule.InitialDelaySeconds) * time.Second
}

// Interval is the period between scheduled cycle starts.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Schedule.IntervalHours) * time.Hour
}
