package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty server address",
			mutate:  func(c *Config) { c.Server.Address = "" },
			wantErr: "server.address",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "server.read_timeout",
		},
		{
			name:    "pong timeout not beyond ping interval",
			mutate:  func(c *Config) { c.Signal.PongTimeout = c.Signal.PingInterval },
			wantErr: "signal.pong_timeout",
		},
		{
			name:    "empty redis address",
			mutate:  func(c *Config) { c.Redis.Address = "" },
			wantErr: "redis.address",
		},
		{
			name:    "empty bus channel",
			mutate:  func(c *Config) { c.Bus.Channel = "" },
			wantErr: "bus.channel",
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *Config) { c.Cooldown.Beep = -time.Second },
			wantErr: "cooldown",
		},
		{
			name:    "max message limit below default",
			mutate:  func(c *Config) { c.Resync.MaxMessageLimit = c.Resync.DefaultMessageLimit - 1 },
			wantErr: "resync.max_message_limit",
		},
		{
			name:    "rate limiting enabled without rps",
			mutate:  func(c *Config) { c.RateLimiting.HTTP.RequestsPerSecond = 0 },
			wantErr: "requests_per_second",
		},
		{
			name: "rate limiting disabled skips rps check",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = false
				c.RateLimiting.HTTP.RequestsPerSecond = 0
			},
		},
		{
			name: "tracing enabled without jaeger url",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.JaegerURL = ""
			},
			wantErr: "jaeger_url",
		},
		{
			name: "sample rate out of range",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SampleRate = 1.5
			},
			wantErr: "sample_rate",
		},
		{
			name:    "empty log level",
			mutate:  func(c *Config) { c.Logging.Level = "" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "reelsync:events", cfg.Bus.Channel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  address: \":9090\"\ncooldown:\n  beep: 5s\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Cooldown.Beep)
	assert.Equal(t, 30*time.Second, cfg.Cooldown.Scream, "unset keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis:\n  address: \"file:6379\"\n"), 0o644))
	t.Setenv("REELSYNC_REDIS_ADDRESS", "env:6379")
	t.Setenv("REELSYNC_LOG_LEVEL", "debug")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "env:6379", cfg.Redis.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis:\n  pool_size: -1\n"), 0o644))

	_, err := Load(path)

	assert.Error(t, err)
}
