package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing http section",
			mutate:  func(c *Config) { c.HTTP = nil },
			wantErr: "HTTP configuration",
		},
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.HTTP.Host = "" },
			wantErr: "host",
		},
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.HTTP.Port = 0 },
			wantErr: "port",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.HTTP.Port = 70000 },
			wantErr: "port",
		},
		{
			name:    "cert without key",
			mutate:  func(c *Config) { c.HTTP.TLSCert = "/tmp/cert.pem" },
			wantErr: "together",
		},
		{
			name:    "key without cert",
			mutate:  func(c *Config) { c.HTTP.TLSKey = "/tmp/key.pem" },
			wantErr: "together",
		},
		{
			name:    "zero ping interval",
			mutate:  func(c *Config) { c.WebSocket.PingInterval = 0 },
			wantErr: "ping interval",
		},
		{
			name: "read timeout below ping interval",
			mutate: func(c *Config) {
				c.WebSocket.PingInterval = 30 * time.Second
				c.WebSocket.ReadTimeout = 10 * time.Second
			},
			wantErr: "exceed the ping interval",
		},
		{
			name:    "empty archive dsn",
			mutate:  func(c *Config) { c.Archive.DSN = "" },
			wantErr: "DSN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestScheme(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Scheme(); got != "http" {
		t.Errorf("expected http without TLS, got %q", got)
	}

	cfg.HTTP.TLSCert = "/tmp/cert.pem"
	cfg.HTTP.TLSKey = "/tmp/key.pem"
	if got := cfg.Scheme(); got != "https" {
		t.Errorf("expected https with TLS, got %q", got)
	}
}
