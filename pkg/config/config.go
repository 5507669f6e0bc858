package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration is a time.Duration that unmarshals from yaml strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var value interface{}
	if err := unmarshal(&value); err != nil {
		return err
	}
	switch v := value.(type) {
	case int:
		*d = Duration(time.Duration(v))
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration value: %v", value)
	}
}

// Std returns the value as a standard time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server struct {
		Address         string   `yaml:"address"`
		ReadTimeout     Duration `yaml:"read_timeout"`
		WriteTimeout    Duration `yaml:"write_timeout"`
		ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Signal struct {
		PingInterval      Duration `yaml:"ping_interval"`
		PongTimeout       Duration `yaml:"pong_timeout"`
		WriteTimeout      Duration `yaml:"write_timeout"`
		OutboundQueueSize int      `yaml:"outbound_queue_size"`
	} `yaml:"signal"`

	Towns struct {
		MasterPassword  string `yaml:"master_password"`
		DefaultCanPlace bool   `yaml:"default_can_place"`
	} `yaml:"towns"`

	Video struct {
		TokenSecret string   `yaml:"token_secret"`
		TokenTTL    Duration `yaml:"token_ttl"`

		Retry struct {
			MaxAttempts  int      `yaml:"max_attempts"`
			InitialDelay Duration `yaml:"initial_delay"`
			MaxDelay     Duration `yaml:"max_delay"`
		} `yaml:"retry"`

		CircuitBreaker struct {
			FailureThreshold int      `yaml:"failure_threshold"`
			SuccessThreshold int      `yaml:"success_threshold"`
			Timeout          Duration `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"video"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"`
		} `yaml:"http"`
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

	if c.Signal.PingInterval <= 0 {
		return fmt.Errorf("signal.ping_interval must be > 0")
	}
	if c.Signal.PongTimeout <= 0 {
		return fmt.Errorf("signal.pong_timeout must be > 0")
	}
	if c.Signal.WriteTimeout <= 0 {
		return fmt.Errorf("signal.write_timeout must be > 0")
	}
	if c.Signal.OutboundQueueSize <= 0 {
		return fmt.Errorf("signal.outbound_queue_size must be > 0")
	}

	if c.Video.TokenSecret == "" {
		return fmt.Errorf("video.token_secret must not be empty")
	}
	if c.Video.TokenTTL <= 0 {
		return fmt.Errorf("video.token_ttl must be > 0")
	}
	if c.Video.Retry.MaxAttempts < 0 {
		return fmt.Errorf("video.retry.max_attempts must be >= 0")
	}
	if c.Video.CircuitBreaker.FailureThreshold <= 0 {
		return fmt.Errorf("video.circuit_breaker.failure_threshold must be > 0")
	}
	if c.Video.CircuitBreaker.SuccessThreshold <= 0 {
		return fmt.Errorf("video.circuit_breaker.success_threshold must be > 0")
	}
	if c.Video.CircuitBreaker.Timeout <= 0 {
		return fmt.Errorf("video.circuit_breaker.timeout must be > 0")
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing is enabled")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in (0, 1]")
		}
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
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

	cfg.Server.Address = ":8081"
	cfg.Server.ReadTimeout = Duration(30 * time.Second)
	cfg.Server.WriteTimeout = Duration(30 * time.Second)
	cfg.Server.ShutdownTimeout = Duration(30 * time.Second)

	cfg.Signal.PingInterval = Duration(30 * time.Second)
	cfg.Signal.PongTimeout = Duration(60 * time.Second)
	cfg.Signal.WriteTimeout = Duration(10 * time.Second)
	cfg.Signal.OutboundQueueSize = 256

	cfg.Towns.MasterPassword = ""
	cfg.Towns.DefaultCanPlace = false

	cfg.Video.TokenSecret = "change-me-in-production"
	cfg.Video.TokenTTL = Duration(4 * time.Hour)
	cfg.Video.Retry.MaxAttempts = 3
	cfg.Video.Retry.InitialDelay = Duration(100 * time.Millisecond)
	cfg.Video.Retry.MaxDelay = Duration(2 * time.Second)
	cfg.Video.CircuitBreaker.FailureThreshold = 5
	cfg.Video.CircuitBreaker.SuccessThreshold = 2
	cfg.Video.CircuitBreaker.Timeout = Duration(30 * time.Second)

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("TOWNHALL_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("TOWNHALL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("TOWNHALL_VIDEO_TOKEN_SECRET"); secret != "" {
		c.Video.TokenSecret = secret
	}
	if master := os.Getenv("TOWNHALL_MASTER_TOWN_PASSWORD"); master != "" {
		c.Towns.MasterPassword = master
	}
}
