package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got: %v", err)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "empty server address",
			mutate: func(c *Config) { c.Server.Address = "" },
		},
		{
			name:   "zero ping interval",
			mutate: func(c *Config) { c.Signal.PingInterval = 0 },
		},
		{
			name:   "zero outbound queue",
			mutate: func(c *Config) { c.Signal.OutboundQueueSize = 0 },
		},
		{
			name:   "empty video secret",
			mutate: func(c *Config) { c.Video.TokenSecret = "" },
		},
		{
			name:   "zero video ttl",
			mutate: func(c *Config) { c.Video.TokenTTL = 0 },
		},
		{
			name:   "zero breaker failure threshold",
			mutate: func(c *Config) { c.Video.CircuitBreaker.FailureThreshold = 0 },
		},
		{
			name:   "empty log level",
			mutate: func(c *Config) { c.Logging.Level = "" },
		},
		{
			name: "rate limiting enabled with zero rps",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.HTTP.RequestsPerSecond = 0
			},
		},
		{
			name: "tracing enabled with empty jaeger url",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.JaegerURL = ""
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.Server.Address != ":8081" {
		t.Fatalf("unexpected default address: %s", cfg.Server.Address)
	}
}

func TestLoad_ReadsYAMLAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  address: \":9000\"\ntowns:\n  default_can_place: true\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":9000" {
		t.Fatalf("yaml override not applied, got %s", cfg.Server.Address)
	}
	if !cfg.Towns.DefaultCanPlace {
		t.Fatal("towns.default_can_place not applied")
	}
}

func TestLoad_ParsesDurationStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  read_timeout: 45s\nvideo:\n  token_ttl: 2h\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ReadTimeout.Std() != 45*time.Second {
		t.Fatalf("read_timeout not parsed, got %v", cfg.Server.ReadTimeout.Std())
	}
	if cfg.Video.TokenTTL.Std() != 2*time.Hour {
		t.Fatalf("token_ttl not parsed, got %v", cfg.Video.TokenTTL.Std())
	}
}

func TestLoad_RejectsMalformedDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  read_timeout: soon\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TOWNHALL_MASTER_TOWN_PASSWORD", "master-pass")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Towns.MasterPassword != "master-pass" {
		t.Fatalf("env override not applied: %q", cfg.Towns.MasterPassword)
	}
}
