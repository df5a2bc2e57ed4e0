package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discflight/discimg/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "disc_flight_data.db", cfg.Catalog.Path)
	assert.Equal(t, "discs", cfg.Catalog.Table)
	assert.Equal(t, "./images", cfg.Backup.Dir)
	assert.Equal(t, 30, cfg.HTTP.TimeoutSeconds)
	assert.Contains(t, cfg.HTTP.UserAgent, "Mozilla/5.0")
	assert.Equal(t, 10, cfg.Enrich.Concurrency)
	assert.Equal(t, "a.img-holder", cfg.Selector.Container)
	assert.Equal(t, "img.img-fluid", cfg.Selector.Image)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DISCIMG_ENRICH_CONCURRENCY", "3")
	t.Setenv("DISCIMG_CATALOG_PATH", "/data/discs.db")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Enrich.Concurrency)
	assert.Equal(t, "/data/discs.db", cfg.Catalog.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discimg.yaml")
	body := `
catalog:
  path: /tmp/catalog.db
  table: approved_discs
enrich:
  concurrency: 4
metrics:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/catalog.db", cfg.Catalog.Path)
	assert.Equal(t, "approved_discs", cfg.Catalog.Table)
	assert.Equal(t, 4, cfg.Enrich.Concurrency)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	// Untouched keys keep their defaults.
	assert.Equal(t, "./images", cfg.Backup.Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("DISCIMG_ENRICH_CONCURRENCY", "0")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich.concurrency")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() config.Config {
		return config.Config{
			Catalog:  config.CatalogConfig{Path: "x.db", Table: "discs"},
			Backup:   config.BackupConfig{Dir: "./images"},
			HTTP:     config.HTTPConfig{TimeoutSeconds: 30},
			Enrich:   config.EnrichConfig{Concurrency: 10},
			Selector: config.SelectorConfig{Container: "a.img-holder", Image: "img.img-fluid"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"MissingCatalogPath", func(c *config.Config) { c.Catalog.Path = "" }},
		{"MissingTable", func(c *config.Config) { c.Catalog.Table = "" }},
		{"MissingBackupDir", func(c *config.Config) { c.Backup.Dir = "" }},
		{"ZeroTimeout", func(c *config.Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"NegativeConcurrency", func(c *config.Config) { c.Enrich.Concurrency = -1 }},
		{"MissingSelector", func(c *config.Config) { c.Selector.Image = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestHTTPTimeout(t *testing.T) {
	t.Parallel()

	cfg := config.Config{HTTP: config.HTTPConfig{TimeoutSeconds: 45}}
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout())
}
