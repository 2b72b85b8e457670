package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServerPort        = 8787
	DefaultLocalPath         = "pharmadex.db"
	DefaultStorageTimeout    = 10 * time.Second
	DefaultDataSourceType    = "storage"
	DefaultAggregation       = "scan"
	DefaultRequestsPerMinute = 5 // free-tier provider quota
	DefaultMaxRetries        = 3
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.use_local", false)
	v.SetDefault("storage.local_path", DefaultLocalPath)
	v.SetDefault("storage.timeout_ms", int(DefaultStorageTimeout/time.Millisecond))
	v.SetDefault("storage.aggregation", DefaultAggregation)

	v.SetDefault("datasource.type", DefaultDataSourceType)
	v.SetDefault("datasource.watch_fixtures", false)

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})

	v.SetDefault("log.json", false)

	v.SetDefault("marketdata.base_url", "https://www.alphavantage.co")
	v.SetDefault("marketdata.requests_per_minute", DefaultRequestsPerMinute)
	v.SetDefault("marketdata.max_retries", DefaultMaxRetries)
	v.SetDefault("marketdata.timeout_seconds", 15)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("storage.url", "PHARMADEX_STORAGE_URL")
	_ = v.BindEnv("storage.anon_key", "PHARMADEX_STORAGE_ANON_KEY")
	_ = v.BindEnv("storage.service_key", "PHARMADEX_STORAGE_SERVICE_KEY")
	_ = v.BindEnv("storage.use_local", "PHARMADEX_USE_LOCAL")
	_ = v.BindEnv("marketdata.api_key", "PHARMADEX_MARKETDATA_API_KEY")
}
