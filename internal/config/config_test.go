package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run in an empty dir so no config.yaml is picked up.
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "ria_cache.db", cfg.Store.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.SEC.DaysBack)
	assert.Equal(t, 4, cfg.SEC.MonthsBack)
	assert.Equal(t, 300, cfg.SEC.TimeoutSecs)
	assert.Equal(t, "https://api.hunter.io/v2", cfg.Hunter.BaseURL)
	assert.Empty(t, cfg.Hunter.Key)
	assert.Equal(t, 10, cfg.Hunter.Limit)
	assert.True(t, cfg.Scorer.FetchWebsites)
	assert.Equal(t, 500, cfg.Scorer.DelayMS)
	assert.Equal(t, 6, cfg.Enrich.MaxSubpages)
	assert.Equal(t, 300, cfg.Enrich.SubpageDelayMS)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
store:
  driver: postgres
  dsn: postgres://localhost/ria
hunter:
  key: test-key
enrich:
  min_score: 40
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/ria", cfg.Store.DSN)
	assert.Equal(t, "test-key", cfg.Hunter.Key)
	assert.Equal(t, 40, cfg.Enrich.MinScore)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset keys.
	assert.Equal(t, 30, cfg.SEC.DaysBack)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		command string
		wantErr bool
	}{
		{"valid sqlite", Config{Store: StoreConfig{Driver: "sqlite"}, SEC: SECConfig{BaseURL: "https://example.com/"}}, "fetch", false},
		{"missing sec base url", Config{Store: StoreConfig{Driver: "sqlite"}}, "fetch", true},
		{"bad driver", Config{Store: StoreConfig{Driver: "mysql"}}, "score", true},
		{"bad port", Config{Store: StoreConfig{Driver: "sqlite"}, Server: ServerConfig{Port: -1}}, "serve", true},
		{"valid serve", Config{Store: StoreConfig{Driver: "postgres"}, Server: ServerConfig{Port: 9000}}, "serve", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.command)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
