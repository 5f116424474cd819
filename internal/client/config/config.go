// Package config loads runtime configuration for the TradeHub CLI.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables prefixed with TRADEHUB_.
//  4. Command-line flags.
//
// Example JSON:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "data_dir": "data",
//	  "request_timeout": "10s"
//	}
package config

import "time"

// Config holds runtime settings for the TradeHub CLI.
//
// DataDir is the directory, relative to the working directory, that holds the
// local SQLite database (session and wishlist).
type Config struct {
	ServerEndpointAddr string        `env:"SERVER_ADDR"`
	DataDir            string        `env:"CLIENT_DATA_DIR"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	LogLevel           string        `env:"CLIENT_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DataDir = "data"
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "error"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
