package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	NewsAPIBaseURL        string        `mapstructure:"newsapi_base_url"`
	NewsAPIKey            string        `mapstructure:"newsapi_key" json:"-"`
	PageSize              int           `mapstructure:"page_size"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	UserAgent             string        `mapstructure:"user_agent"`

	StorageType           string        `mapstructure:"storage_type"`
	BBoltPath             string        `mapstructure:"bbolt_path"`
	CacheTTLSeconds       int64         `mapstructure:"cache_ttl_seconds"`
	StorageCleanupSeconds int64         `mapstructure:"storage_cleanup_interval_seconds"`
	CacheTTL              time.Duration `mapstructure:"-"`
	StorageCleanup        time.Duration `mapstructure:"-"`

	ExportersFile string `mapstructure:"exporters_file"`
	ExportDir     string `mapstructure:"export_dir"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-newsdesk")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "./data/newsdesk.log")
	v.SetDefault("newsapi_base_url", "https://newsapi.org/v2/")
	v.SetDefault("newsapi_key", "")
	v.SetDefault("page_size", 5)
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("user_agent", "samvad-newsdesk/1.0")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/newsdesk.db")
	v.SetDefault("cache_ttl_seconds", 300)
	v.SetDefault("storage_cleanup_interval_seconds", 3600)
	v.SetDefault("exporters_file", "./configs/exporters.yaml")
	v.SetDefault("export_dir", "./exports")
}

func (cfg *Config) normalize() error {
	if cfg.PageSize < 1 {
		return fmt.Errorf("invalid page_size (must be >= 1)")
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.CacheTTLSeconds < 0 {
		return fmt.Errorf("invalid cache_ttl_seconds (must be zero or positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.CacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
	cfg.StorageCleanup = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if cfg.NewsAPIBaseURL == "" {
		return fmt.Errorf("newsapi_base_url is required")
	}
	return nil
}
