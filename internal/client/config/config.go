package config

import "time"

// Config holds runtime settings for the board CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the board REST API.
//   - HealthEndpointAddr: host:port of a gRPC health endpoint; "" probes ServerBaseURL over HTTP.
//   - RequestTimeout: per-request timeout of the REST client.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - SessionCheckInterval: how often an online client re-validates its session.
//   - DatabasePath: SQLite file holding the persisted session and preferences.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerBaseURL        string
	HealthEndpointAddr   string
	RequestTimeout       time.Duration
	OnlineCheckInterval  time.Duration
	SessionCheckInterval time.Duration
	DatabasePath         string
	LogLevel             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.HealthEndpointAddr = ""
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.SessionCheckInterval = 5 * time.Minute
	c.DatabasePath = "taskboard.db"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
