package config

import "time"

// Config holds runtime settings for the accounts CLI.
//
// Fields:
//   - ServerURL: base URL of the accounts HTTP API.
//   - RequestTimeout: per-request deadline for API calls.
//   - SessionDSN: SQLite file that keeps the session between runs.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	SessionDSN     string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3000"
	c.RequestTimeout = 10 * time.Second
	c.SessionDSN = "session.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
