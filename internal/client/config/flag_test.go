package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd", "-a", "http://api:9090", "-g", "api:50051", "-i", "10", "-t", "4",
			"-d", "/tmp/tb.db", "-l", "debug"}, expectPanic: false,
			expected: &Config{ServerBaseURL: "http://api:9090", HealthEndpointAddr: "api:50051", OnlineCheckInterval: 10 * time.Second,
				RequestTimeout: 4 * time.Second, DatabasePath: "/tmp/tb.db", LogLevel: "debug"}},
		{name: "unknown flags ignored", args: []string{"cmd", "-x", "1", "-a", "http://api:9090"}, expectPanic: false,
			expected: &Config{ServerBaseURL: "http://api:9090"}},
		{name: "incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
