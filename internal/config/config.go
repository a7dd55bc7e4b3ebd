// Package config holds the runtime configuration of the game server.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config captures every tunable of the server. Values are populated from
// command-line flags and WHOSREAL_* environment variables in cmd/whosreal.
type Config struct {
	Bind      string
	Port      int
	SQLiteDSN string

	Countdown            time.Duration
	DefaultRequiredCount int
	PageSize             int

	// ClearCodeHash is the argon2id hash of the moderation clear code.
	// Empty disables the credential check.
	ClearCodeHash string

	OpenAIAPIKey string
	OpenAIModel  string

	TLSCert string
	TLSKey  string
	Verbose bool
}

// Validate checks invariants the flag parser cannot express.
func (c *Config) Validate() error {
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.Countdown <= 0 {
		return fmt.Errorf("invalid countdown duration: %v", c.Countdown)
	}
	if c.DefaultRequiredCount < 2 {
		return fmt.Errorf("invalid default required count (must be at least 2): %d", c.DefaultRequiredCount)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("invalid page size: %d", c.PageSize)
	}
	return nil
}

// Scheme returns the URL scheme the server will serve under.
func (c *Config) Scheme() string {
	if c.TLSCert != "" && c.TLSKey != "" {
		return "https"
	}
	return "http"
}

// BaseURL renders the externally visible address, used for invite links.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Bind, c.Port)
}
