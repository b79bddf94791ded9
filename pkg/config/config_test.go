package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "live", cfg.Telemetry.Source)
	assert.Equal(t, 5.0, cfg.Thresholds.VideoMaxPacketLossPercent)
	assert.Equal(t, 3, cfg.Selector.ConsecutivePoorToDowngrade)
	assert.Equal(t, 5, cfg.Selector.ConsecutiveGoodToUpgrade)
	assert.Equal(t, 30*time.Second, cfg.Selector.SwitchCooldown)
	assert.Equal(t, 30, cfg.Alerts.CriticalBelow)
	assert.Equal(t, 50, cfg.Alerts.WarningBelow)
	assert.Equal(t, 60*time.Second, cfg.Alerts.Cooldown)
	assert.Equal(t, 256, cfg.Alerts.QueueDepth)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  address: ":9999"
telemetry:
  source: "simulated"
selector:
  switch_cooldown: 10s
alerts:
  cooldown: 120s
thresholds:
  video_max_packet_loss_percent: 7.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "simulated", cfg.Telemetry.Source)
	assert.Equal(t, 10*time.Second, cfg.Selector.SwitchCooldown)
	assert.Equal(t, 120*time.Second, cfg.Alerts.Cooldown)
	assert.Equal(t, 7.5, cfg.Thresholds.VideoMaxPacketLossPercent)
	// Untouched sections keep their defaults.
	assert.Equal(t, 256, cfg.Alerts.QueueDepth)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEQUAL_SERVER_ADDRESS", ":7070")
	t.Setenv("TELEQUAL_LOG_LEVEL", "debug")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"bad source", func(c *Config) { c.Telemetry.Source = "psychic" }},
		{"loss over 100", func(c *Config) { c.Thresholds.VideoMaxPacketLossPercent = 150 }},
		{"zero hysteresis", func(c *Config) { c.Selector.ConsecutivePoorToDowngrade = 0 }},
		{"warning below critical", func(c *Config) { c.Alerts.WarningBelow = 10 }},
		{"zero queue", func(c *Config) { c.Alerts.QueueDepth = 0 }},
		{"zero query timeout", func(c *Config) { c.Persistence.QueryTimeout = 0 }},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
