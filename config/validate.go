package config

import "github.com/teranos/pharmadex/errors"

// Validate checks that the configuration is valid.
// Missing storage credentials are not a validation failure: the storage
// provider substitutes a stub client that reports invalid credentials.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Storage.TimeoutMS < 0 {
		return errors.Newf("storage.timeout_ms must be >= 0, got %d", c.Storage.TimeoutMS)
	}
	switch c.Storage.Aggregation {
	case "", "scan", "grouped":
	default:
		return errors.Newf("storage.aggregation must be scan or grouped, got %q", c.Storage.Aggregation)
	}
	switch c.DataSource.Type {
	case "", "memory", "storage":
	default:
		return errors.Newf("datasource.type must be memory or storage, got %q", c.DataSource.Type)
	}
	if c.MarketData.RequestsPerMinute < 0 {
		return errors.Newf("marketdata.requests_per_minute must be >= 0, got %d", c.MarketData.RequestsPerMinute)
	}
	if c.MarketData.MaxRetries < 0 {
		return errors.Newf("marketdata.max_retries must be >= 0, got %d", c.MarketData.MaxRetries)
	}
	return nil
}
