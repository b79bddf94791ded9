package config

import (
	"fmt"
	"os"
	"time"

	"telequal/internal/core/domain"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Telemetry struct {
		// Source selects where raw samples come from: "live" accepts
		// websocket feeds from media clients, "simulated" generates
		// synthetic sessions for load and demo runs.
		Source         string        `yaml:"source"`
		WebSocketPath  string        `yaml:"websocket_path"`
		SampleInterval time.Duration `yaml:"sample_interval"`
		SimulatedRooms int           `yaml:"simulated_rooms"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		PongTimeout    time.Duration `yaml:"pong_timeout"`
	} `yaml:"telemetry"`

	Thresholds domain.QualityThresholds `yaml:"thresholds"`

	Selector struct {
		ConsecutivePoorToDowngrade int           `yaml:"consecutive_poor_to_downgrade"`
		ConsecutiveGoodToUpgrade   int           `yaml:"consecutive_good_to_upgrade"`
		SwitchCooldown             time.Duration `yaml:"switch_cooldown"`
		InitialProfile             string        `yaml:"initial_profile"`
	} `yaml:"selector"`

	Alerts struct {
		CriticalBelow int           `yaml:"critical_below"`
		WarningBelow  int           `yaml:"warning_below"`
		Cooldown      time.Duration `yaml:"cooldown"`
		QueueDepth    int           `yaml:"queue_depth"`
		NotifyTimeout time.Duration `yaml:"notify_timeout"`
	} `yaml:"alerts"`

	Persistence struct {
		QueryTimeout   time.Duration `yaml:"query_timeout"`
		ReportCacheTTL time.Duration `yaml:"report_cache_ttl"`
		BatchSize      int           `yaml:"batch_size"`
		BatchInterval  time.Duration `yaml:"batch_interval"`
	} `yaml:"persistence"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		MaxConcurrent     int     `yaml:"max_concurrent"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Telemetry.Source != "live" && c.Telemetry.Source != "simulated" {
		return fmt.Errorf("telemetry.source must be \"live\" or \"simulated\"")
	}
	if c.Telemetry.SampleInterval <= 0 {
		return fmt.Errorf("telemetry.sample_interval must be > 0")
	}

	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	if c.Selector.ConsecutivePoorToDowngrade <= 0 {
		return fmt.Errorf("selector.consecutive_poor_to_downgrade must be > 0")
	}
	if c.Selector.ConsecutiveGoodToUpgrade <= 0 {
		return fmt.Errorf("selector.consecutive_good_to_upgrade must be > 0")
	}
	if c.Selector.SwitchCooldown < 0 {
		return fmt.Errorf("selector.switch_cooldown must be >= 0")
	}

	if c.Alerts.CriticalBelow <= 0 || c.Alerts.CriticalBelow > 100 {
		return fmt.Errorf("alerts.critical_below must be within (0, 100]")
	}
	if c.Alerts.WarningBelow <= c.Alerts.CriticalBelow {
		return fmt.Errorf("alerts.warning_below must be > alerts.critical_below")
	}
	if c.Alerts.Cooldown <= 0 {
		return fmt.Errorf("alerts.cooldown must be > 0")
	}
	if c.Alerts.QueueDepth <= 0 {
		return fmt.Errorf("alerts.queue_depth must be > 0")
	}

	if c.Persistence.QueryTimeout <= 0 {
		return fmt.Errorf("persistence.query_timeout must be > 0")
	}
	if c.Persistence.BatchSize <= 0 {
		return fmt.Errorf("persistence.batch_size must be > 0")
	}
	if c.Persistence.BatchInterval <= 0 {
		return fmt.Errorf("persistence.batch_interval must be > 0")
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Telemetry.Source = "live"
	cfg.Telemetry.WebSocketPath = "/ws/telemetry"
	cfg.Telemetry.SampleInterval = 5 * time.Second
	cfg.Telemetry.SimulatedRooms = 2
	cfg.Telemetry.PingInterval = 30 * time.Second
	cfg.Telemetry.PongTimeout = 60 * time.Second

	cfg.Thresholds = domain.DefaultQualityThresholds()

	cfg.Selector.ConsecutivePoorToDowngrade = 3
	cfg.Selector.ConsecutiveGoodToUpgrade = 5
	cfg.Selector.SwitchCooldown = 30 * time.Second
	cfg.Selector.InitialProfile = "medium"

	cfg.Alerts.CriticalBelow = 30
	cfg.Alerts.WarningBelow = 50
	cfg.Alerts.Cooldown = 60 * time.Second
	cfg.Alerts.QueueDepth = 256
	cfg.Alerts.NotifyTimeout = 5 * time.Second

	cfg.Persistence.QueryTimeout = 5 * time.Second
	cfg.Persistence.ReportCacheTTL = 30 * time.Second
	cfg.Persistence.BatchSize = 50
	cfg.Persistence.BatchInterval = 500 * time.Millisecond

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100
	cfg.RateLimiting.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if addr := os.Getenv("TELEQUAL_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if source := os.Getenv("TELEQUAL_TELEMETRY_SOURCE"); source != "" {
		c.Telemetry.Source = source
	}
	if level := os.Getenv("TELEQUAL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("TELEQUAL_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
		c.Redis.Enabled = true
	}
}
