package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds the location of the on-disk cache file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress"`
}

// UpstreamConfig holds settings for the catalog HTTP API.
type UpstreamConfig struct {
	BaseURL           string  `mapstructure:"baseURL"`
	Timeout           int     `mapstructure:"timeout"` // seconds, 0 = no client timeout
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	UserAgent         string  `mapstructure:"userAgent"`
}

// CatalogConfig holds display and assembly preferences.
type CatalogConfig struct {
	VideoQuality      int    `mapstructure:"videoQuality"`
	RatingSource      string `mapstructure:"ratingSource"`
	LoadDetails       bool   `mapstructure:"loadDetails"`
	HydrationWorkers  int    `mapstructure:"hydrationWorkers"`
	EpisodeLabel      string `mapstructure:"episodeLabel"`
	SeasonLabel       string `mapstructure:"seasonLabel"`
	FiltersTTLMinutes int    `mapstructure:"filtersTTLMinutes"`
}

// FiltersTTL returns how long the filter catalog is memoized.
func (c CatalogConfig) FiltersTTL() time.Duration {
	return time.Duration(c.FiltersTTLMinutes) * time.Minute
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TTLHours  int    `mapstructure:"ttlHours"`
	SweepCron string `mapstructure:"sweepCron"`
}

// TTL returns the entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8095,
		},
		Database: DatabaseConfig{
			Path: "./data/cache.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://w1.zona.plus",
			Timeout: 30,
		},
		Catalog: CatalogConfig{
			HydrationWorkers:  1,
			EpisodeLabel:      "Episode",
			SeasonLabel:       "Season",
			FiltersTTLMinutes: 180,
		},
		Cache: CacheConfig{
			Enabled:   true,
			TTLHours:  48,
			SweepCron: "0 * * * *",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.zonamobi")
	}

	v.SetEnvPrefix("ZONAMOBI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults mirrors Default() so env-only keys are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.maxSizeMB", d.Logging.MaxSizeMB)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("logging.maxAgeDays", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("upstream.baseURL", d.Upstream.BaseURL)
	v.SetDefault("upstream.timeout", d.Upstream.Timeout)
	v.SetDefault("upstream.requestsPerSecond", d.Upstream.RequestsPerSecond)
	v.SetDefault("upstream.userAgent", d.Upstream.UserAgent)

	v.SetDefault("catalog.videoQuality", d.Catalog.VideoQuality)
	v.SetDefault("catalog.ratingSource", d.Catalog.RatingSource)
	v.SetDefault("catalog.loadDetails", d.Catalog.LoadDetails)
	v.SetDefault("catalog.hydrationWorkers", d.Catalog.HydrationWorkers)
	v.SetDefault("catalog.episodeLabel", d.Catalog.EpisodeLabel)
	v.SetDefault("catalog.seasonLabel", d.Catalog.SeasonLabel)
	v.SetDefault("catalog.filtersTTLMinutes", d.Catalog.FiltersTTLMinutes)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttlHours", d.Cache.TTLHours)
	v.SetDefault("cache.sweepCron", d.Cache.SweepCron)
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.baseURL must not be empty")
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout must be >= 0")
	}
	if c.Upstream.RequestsPerSecond < 0 {
		return fmt.Errorf("upstream.requestsPerSecond must be >= 0")
	}
	if c.Catalog.VideoQuality < 0 {
		return fmt.Errorf("catalog.videoQuality must be >= 0")
	}
	switch strings.ToLower(c.Catalog.RatingSource) {
	case "", "imdb", "kinopoisk", "native", "zona":
	default:
		return fmt.Errorf("catalog.ratingSource %q is not one of imdb, kinopoisk, native", c.Catalog.RatingSource)
	}
	if c.Catalog.HydrationWorkers < 1 {
		c.Catalog.HydrationWorkers = 1
	}
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache.ttlHours must be > 0")
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
