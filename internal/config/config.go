// Package config holds the runtime settings for the polling server.
package config

import (
	"fmt"
	"time"
)

// Config groups settings by subsystem. The command layer populates it
// from flags and CLASSPOLL_* environment variables.
type Config struct {
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Archive   *ArchiveConfig   `json:"archive"`

	// PublicURL is the address students open to join; the /qr
	// endpoint encodes it. Derived from the request when empty.
	PublicURL string `json:"public_url"`

	Profile bool `json:"profile"`
	Verbose bool `json:"verbose"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	TLSCert      string        `json:"tls_cert"`
	TLSKey       string        `json:"tls_key"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type ArchiveConfig struct {
	// DSN is the sqlite path for completed polls. The default
	// ":memory:" keeps the archive for the lifetime of the process.
	DSN string `json:"dsn"`
}

// DefaultConfig returns settings sized for a single classroom: 30s
// heartbeat, ephemeral archive, plain HTTP on 8080.
func DefaultConfig() *Config {
	return &Config{
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Archive: &ArchiveConfig{
			DSN: ":memory:",
		},
	}
}

func (c *Config) Validate() error {
	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}

	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}

	if c.HTTP.ReadTimeout <= 0 {
		return fmt.Errorf("HTTP read timeout must be positive")
	}

	if c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP write timeout must be positive")
	}

	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		return fmt.Errorf("TLS certificate and key must be provided together")
	}

	if c.WebSocket == nil {
		return fmt.Errorf("WebSocket configuration is required")
	}

	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("WebSocket ping interval must be positive")
	}

	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("WebSocket read timeout must exceed the ping interval")
	}

	if c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket write timeout must be positive")
	}

	if c.Archive == nil {
		return fmt.Errorf("archive configuration is required")
	}

	if c.Archive.DSN == "" {
		return fmt.Errorf("archive DSN cannot be empty")
	}

	return nil
}

// Scheme reports the URL scheme the server will be reachable on.
func (c *Config) Scheme() string {
	if c.HTTP.TLSCert != "" && c.HTTP.TLSKey != "" {
		return "https"
	}
	return "http"
}
