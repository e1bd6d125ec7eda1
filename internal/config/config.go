// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	SEC    SECConfig    `yaml:"sec" mapstructure:"sec"`
	Hunter HunterConfig `yaml:"hunter" mapstructure:"hunter"`
	Scorer ScorerConfig `yaml:"scorer" mapstructure:"scorer"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the cache backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// SECConfig configures the monthly IAPD snapshot download.
type SECConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
	DaysBack    int    `yaml:"days_back" mapstructure:"days_back"`
	MonthsBack  int    `yaml:"months_back" mapstructure:"months_back"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// HunterConfig holds Hunter.io domain-search API settings.
// An empty Key disables the API lookup entirely.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Limit   int    `yaml:"limit" mapstructure:"limit"`
}

// ScorerConfig configures fit scoring.
type ScorerConfig struct {
	RubricPath    string `yaml:"rubric_path" mapstructure:"rubric_path"`
	FetchWebsites bool   `yaml:"fetch_websites" mapstructure:"fetch_websites"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DelayMS       int    `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// EnrichConfig configures contact extraction.
type EnrichConfig struct {
	MinScore       int `yaml:"min_score" mapstructure:"min_score"`
	MaxSubpages    int `yaml:"max_subpages" mapstructure:"max_subpages"`
	SubpageDelayMS int `yaml:"subpage_delay_ms" mapstructure:"subpage_delay_ms"`
	FirmDelayMS    int `yaml:"firm_delay_ms" mapstructure:"firm_delay_ms"`
	TimeoutSecs    int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "ria_cache.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("sec.base_url", "https://www.sec.gov/files/investment/data/information-about-registered-investment-advisers-exempt-reporting-advisers/")
	v.SetDefault("sec.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("sec.temp_dir", "")
	v.SetDefault("sec.days_back", 30)
	v.SetDefault("sec.months_back", 4)
	v.SetDefault("sec.timeout_secs", 300)
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("hunter.limit", 10)
	v.SetDefault("scorer.fetch_websites", true)
	v.SetDefault("scorer.timeout_secs", 15)
	v.SetDefault("scorer.delay_ms", 500)
	v.SetDefault("enrich.min_score", 0)
	v.SetDefault("enrich.max_subpages", 6)
	v.SetDefault("enrich.subpage_delay_ms", 300)
	v.SetDefault("enrich.firm_delay_ms", 1000)
	v.SetDefault("enrich.timeout_secs", 15)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks settings needed by the given command.
func (c *Config) Validate(command string) error {
	switch command {
	case "fetch", "run":
		if c.SEC.BaseURL == "" {
			return eris.New("config: sec.base_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return eris.Errorf("config: invalid server.port %d", c.Server.Port)
		}
	}
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return eris.Errorf("config: unsupported store.driver %q", c.Store.Driver)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
