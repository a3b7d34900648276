package telemetry

import (
	"testing"
	"time"

	"github.com/fyrsmithlabs/journald/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ProtocolGRPC, cfg.Protocol)
	assert.Equal(t, "journald", cfg.ServiceName)
}

func TestFromSettings(t *testing.T) {
	s := config.NewDefaultConfig().Telemetry
	s.Enabled = true
	s.Endpoint = "collector:4318"
	s.Protocol = ProtocolHTTP
	s.SamplingRate = 0.25
	s.MetricsInterval = config.Duration(time.Minute)

	cfg := FromSettings(s)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, 0.25, cfg.SamplingRate)
	assert.Equal(t, time.Minute, cfg.MetricsInterval.Duration())
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout.Duration())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"disabled ignores fields", func(c *Config) { c.Endpoint = ""; c.Protocol = "smoke" }, ""},
		{"missing endpoint", func(c *Config) { c.Enabled = true; c.Endpoint = "" }, "endpoint"},
		{"missing service", func(c *Config) { c.Enabled = true; c.ServiceName = "" }, "service name"},
		{"bad protocol", func(c *Config) { c.Enabled = true; c.Protocol = "udp" }, "unknown protocol"},
		{"rate too high", func(c *Config) { c.Enabled = true; c.SamplingRate = 1.5 }, "sampling rate"},
		{"zero interval", func(c *Config) { c.Enabled = true; c.MetricsInterval = 0 }, "metrics interval"},
		{"http ok", func(c *Config) { c.Enabled = true; c.Protocol = ProtocolHTTP }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
