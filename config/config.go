// Package config loads pharmadex configuration through Viper.
//
// Precedence (lowest to highest): defaults < /etc/pharmadex/config.toml <
// ~/.pharmadex/config.toml < project pharmadex.toml < PHARMADEX_* env vars.
// Configuration is read once at process start; request handlers never re-read it.
package config

import "time"

// Config represents the pharmadex configuration
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	DataSource DataSourceConfig `mapstructure:"datasource"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	MarketData MarketDataConfig `mapstructure:"marketdata"`
}

// StorageConfig configures the storage client.
// URL + AnonKey build the request-path client; ServiceKey builds the
// privileged client used by CLI maintenance commands.
type StorageConfig struct {
	URL         string `mapstructure:"url"`         // postgres://host:5432/db (key is injected as the password)
	AnonKey     string `mapstructure:"anon_key"`    // anonymous role key
	ServiceKey  string `mapstructure:"service_key"` // privileged role key, server-only
	UseLocal    bool   `mapstructure:"use_local"`   // use the local SQLite file instead of the remote store
	LocalPath   string `mapstructure:"local_path"`  // SQLite path when use_local = true
	TimeoutMS   int    `mapstructure:"timeout_ms"`  // per-call timeout
	Aggregation string `mapstructure:"aggregation"` // scan | grouped
}

// DataSourceConfig selects the active DataSource implementation
type DataSourceConfig struct {
	Type     string `mapstructure:"type"`     // memory | storage
	Fixtures string `mapstructure:"fixtures"` // optional YAML fixture file for the memory source
	// WatchFixtures reloads the memory source when the fixture file changes
	WatchFixtures bool `mapstructure:"watch_fixtures"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Dev            bool     `mapstructure:"dev"` // dev mode: permissive CORS, error details in logs only
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

// MarketDataConfig configures the external financial-data provider
type MarketDataConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	MaxRetries        int    `mapstructure:"max_retries"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-call storage timeout
func (s StorageConfig) Timeout() time.Duration {
	if s.TimeoutMS <= 0 {
		return DefaultStorageTimeout
	}
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// GetLocalPath returns the configured SQLite path
func (s StorageConfig) GetLocalPath() string {
	if s.LocalPath == "" {
		return DefaultLocalPath
	}
	return s.LocalPath
}
