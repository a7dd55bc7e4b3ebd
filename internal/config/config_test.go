package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Bind:                 "0.0.0.0",
		Port:                 8080,
		SQLiteDSN:            "file:whosreal.db",
		Countdown:            time.Minute,
		DefaultRequiredCount: 2,
		PageSize:             100,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"tls cert without key", func(c *Config) { c.TLSCert = "cert.pem" }, true},
		{"tls key without cert", func(c *Config) { c.TLSKey = "key.pem" }, true},
		{"tls pair", func(c *Config) { c.TLSCert, c.TLSKey = "cert.pem", "key.pem" }, false},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"non-positive countdown", func(c *Config) { c.Countdown = 0 }, true},
		{"required count below two", func(c *Config) { c.DefaultRequiredCount = 1 }, true},
		{"page size zero", func(c *Config) { c.PageSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := validConfig()
	if cfg.Scheme() != "http" {
		t.Fatalf("expected http, got %s", cfg.Scheme())
	}

	cfg.TLSCert, cfg.TLSKey = "cert.pem", "key.pem"
	if cfg.Scheme() != "https" {
		t.Fatalf("expected https, got %s", cfg.Scheme())
	}
}

func TestConfigBaseURL(t *testing.T) {
	cfg := validConfig()
	if got := cfg.BaseURL(); got != "http://0.0.0.0:8080" {
		t.Fatalf("unexpected base url %q", got)
	}
}
