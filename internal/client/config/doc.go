// Package config loads runtime configuration for the board CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     ".toml" are decoded as TOML, anything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-g string   host:port of the gRPC health endpoint
//	-i int      online status check interval (seconds)
//	-t int      request timeout (seconds)
//	-d string   path of the local database
//	-l string   log level
//
// # File schema
//
// Intervals use timex.Duration, so JSON values can be strings like "3s" or
// integer nanoseconds; TOML values are strings:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8080",
//	  "health_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s",
//	  "session_check_interval": "5m",
//	  "database_path": "taskboard.db",
//	  "log_level": "info"
//	}
//
// Keys missing from the file keep their previous value.
//
// Note: This package does not read environment variables directly; use the
// config file or flags to configure values.
package config
