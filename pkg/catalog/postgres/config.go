package postgres

import (
	"fmt"
	"time"
)

// Config holds the configuration for the PostgreSQL catalog driver.
type Config struct {
	// Connection parameters
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"db"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Schema   string `mapstructure:"schema"`
	SSLMode  string `mapstructure:"sslmode"`

	// Connection pool
	MaxConns int32 `mapstructure:"max_connections"` // Default: 10
	MinConns int32 `mapstructure:"min_connections"` // Default: 3

	// TestBeforeAcquire validates pooled connections with a ping before
	// handing them out. Slower but catches dead connections early.
	TestBeforeAcquire bool `mapstructure:"test_before_acquire"`

	// Timeouts
	AcquireTimeout       time.Duration `mapstructure:"acquire_timeout"`        // Default: 5s
	AcquireSlowThreshold time.Duration `mapstructure:"acquire_slow_threshold"` // Default: 1s
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`        // Default: 5s
	QueryTimeout         time.Duration `mapstructure:"query_timeout"`          // Default: 30s

	// AutoMigrate runs the embedded schema migrations at store construction.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// ApplyDefaults sets default values for unspecified configuration fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.Schema == "" {
		c.Schema = "public"
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}

	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 3
	}

	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = 5 * time.Second
	}
	if c.AcquireSlowThreshold == 0 {
		c.AcquireSlowThreshold = time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.Database == "" {
		return fmt.Errorf("db is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}

	if c.MaxConns < 1 {
		return fmt.Errorf("max_connections must be at least 1")
	}
	if c.MinConns < 0 {
		return fmt.Errorf("min_connections cannot be negative")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min_connections (%d) cannot be greater than max_connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
		"prefer":      true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid sslmode: %s (must be one of: disable, require, verify-ca, verify-full, prefer)", c.SSLMode)
	}

	return nil
}

// ConnectionString builds a PostgreSQL connection string from the config.
func (c *Config) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=%d",
		c.Host,
		c.Port,
		c.Database,
		c.User,
		c.Password,
		c.SSLMode,
		int(c.ConnectTimeout.Seconds()),
	)
}
