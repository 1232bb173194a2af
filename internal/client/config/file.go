package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/flagx"
	"github.com/dmitrijs2005/taskboard/internal/timex"
	"github.com/pelletier/go-toml/v2"
)

// fileConfig is a DTO used exclusively for decoding config files.
type fileConfig struct {
	ServerBaseURL        string         `json:"server_base_url" toml:"server_base_url"`
	HealthEndpointAddr   string         `json:"health_endpoint_addr" toml:"health_endpoint_addr"`
	RequestTimeout       timex.Duration `json:"request_timeout" toml:"request_timeout"`
	OnlineCheckInterval  timex.Duration `json:"online_check_interval" toml:"online_check_interval"`
	SessionCheckInterval timex.Duration `json:"session_check_interval" toml:"session_check_interval"`
	DatabasePath         string         `json:"database_path" toml:"database_path"`
	LogLevel             string         `json:"log_level" toml:"log_level"`
}

// parseFile overlays cfg with the file named by -c/-config, if any.
// It panics on read or decode errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc fileConfig) apply(cfg *Config) {
	if fc.ServerBaseURL != "" {
		cfg.ServerBaseURL = fc.ServerBaseURL
	}
	if fc.HealthEndpointAddr != "" {
		cfg.HealthEndpointAddr = fc.HealthEndpointAddr
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.SessionCheckInterval.Duration > 0 {
		cfg.SessionCheckInterval = fc.SessionCheckInterval.Duration
	}
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}
