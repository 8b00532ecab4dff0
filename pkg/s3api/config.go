package s3api

import "time"

// Config configures the S3 HTTP server.
type Config struct {
	// Host is the listen address. Default: localhost.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the listen port. Default: 8014.
	Port int `mapstructure:"port" yaml:"port"`

	// Domains enables virtual-host-style addressing: a Host header of
	// {bucket}.{domain} is rewritten to path-style. Empty means path-style
	// only.
	Domains []string `mapstructure:"domains" yaml:"domains"`

	// AccessKey and SecretKey are the single static credential. Both empty
	// runs the server without authentication.
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	// ReadHeaderTimeout bounds header parsing. Request bodies stream
	// without a deadline; object uploads can legitimately take long.
	// Default: 10s.
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`

	// IdleTimeout is the keep-alive idle limit. Default: 120s.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout is the graceful-shutdown drain window. Default: 10s.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port <= 0 {
		c.Port = 8014
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Anonymous reports whether the server runs without a credential.
func (c *Config) Anonymous() bool {
	return c.AccessKey == ""
}
