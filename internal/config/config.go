package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the REST API server.
type ServerConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// FetchConfig configures page retrieval.
type FetchConfig struct {
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRedirects int    `yaml:"max_redirects" mapstructure:"max_redirects"`
	MaxBodyKB    int    `yaml:"max_body_kb" mapstructure:"max_body_kb"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ExtractConfig configures candidate extraction.
type ExtractConfig struct {
	MaxCandidates int `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency  int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxCompanies int `yaml:"max_companies" mapstructure:"max_companies"`
	MaxPages     int `yaml:"max_pages" mapstructure:"max_pages"` // extended-mode crawl budget per company
}

// EnrichConfig configures the geocoding enrichment step.
type EnrichConfig struct {
	GoogleAPIKey string  `yaml:"google_api_key" mapstructure:"google_api_key"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequireKey   bool    `yaml:"require_key" mapstructure:"require_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// .env is optional and never overrides real environment variables.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADDRINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The bare GOOGLE_MAPS_API_KEY is honored so deployments that already
	// export it need no renaming. The prefixed form wins when both are set.
	_ = v.BindEnv("enrich.google_api_key", "ADDRINTEL_ENRICH_GOOGLE_API_KEY", "GOOGLE_MAPS_API_KEY")

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("fetch.max_redirects", 5)
	v.SetDefault("fetch.max_body_kb", 512)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; AddressIntelBot/1.0)")
	v.SetDefault("extract.max_candidates", 10)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.max_companies", 500)
	v.SetDefault("batch.max_pages", 6)
	v.SetDefault("enrich.rate_limit", 10.0)
	v.SetDefault("enrich.timeout_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the invariants a given command mode depends on.
func (c *Config) Validate(mode string) error {
	if c.Fetch.TimeoutSecs <= 0 {
		return eris.New("config: fetch.timeout_secs must be positive")
	}
	if c.Fetch.MaxRedirects < 0 {
		return eris.New("config: fetch.max_redirects must not be negative")
	}
	if c.Fetch.MaxBodyKB <= 0 {
		return eris.New("config: fetch.max_body_kb must be positive")
	}
	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
		return eris.Errorf("config: batch.concurrency %d outside 1-64", c.Batch.Concurrency)
	}
	if c.Enrich.RateLimit <= 0 {
		return eris.New("config: enrich.rate_limit must be positive")
	}

	switch mode {
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return eris.Errorf("config: server.port %d outside 1-65535", c.Server.Port)
		}
		if c.Server.MaxUploadMB < 1 {
			return eris.New("config: server.max_upload_mb must be at least 1")
		}
	case "run", "batch":
		// Covered by the shared checks above.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	return nil
}

// EnrichmentEnabled reports whether the enrichment step should run. With
// require_key set the step runs even without a key so rows surface
// invalid_key instead of being silently skipped.
func (c *Config) EnrichmentEnabled() bool {
	return c.Enrich.GoogleAPIKey != "" || c.Enrich.RequireKey
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
