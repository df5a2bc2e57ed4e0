// Package config loads and validates discimg configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Backup   BackupConfig   `mapstructure:"backup"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	Selector SelectorConfig `mapstructure:"selector"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CatalogConfig locates the SQLite catalog.
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Table string `mapstructure:"table"`
}

// BackupConfig sets the backup image directory.
type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// HTTPConfig configures outbound HTTP behavior for both fetch stages.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// EnrichConfig governs pipeline fan-out.
type EnrichConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// SelectorConfig is the declarative structural rule used to locate the
// image reference inside a product page.
type SelectorConfig struct {
	Container string `mapstructure:"container"`
	Image     string `mapstructure:"image"`
}

// MetricsConfig enables the optional Prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DISCIMG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	v.SetDefault("catalog.path", "disc_flight_data.db")
	v.SetDefault("catalog.table", "discs")
	v.SetDefault("backup.dir", "./images")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("enrich.concurrency", 10)
	v.SetDefault("selector.container", "a.img-holder")
	v.SetDefault("selector.image", "img.img-fluid")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path must be set")
	}
	if c.Catalog.Table == "" {
		return fmt.Errorf("catalog.table must be set")
	}
	if c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Enrich.Concurrency <= 0 {
		return fmt.Errorf("enrich.concurrency must be > 0")
	}
	if c.Selector.Container == "" || c.Selector.Image == "" {
		return fmt.Errorf("selector.container and selector.image must be set")
	}
	return nil
}

// HTTPTimeout converts the timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
