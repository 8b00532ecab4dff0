// Package config loads the Shelf server configuration from a single YAML
// file plus SHELF_-prefixed environment variable overrides.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (applied by the commands, highest priority)
//  2. Environment variables (SHELF_*, dots become underscores)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/shelf/pkg/s3api"
)

// Config is the full Shelf configuration.
type Config struct {
	// Server configures the S3-facing HTTP server. Every key here is a
	// file-configurable mirror of a `shelf serve` flag; flags win.
	Server s3api.Config `mapstructure:"server" yaml:"server"`

	// Datasource configures the metadata catalog.
	Datasource DatasourceConfig `mapstructure:"datasource" yaml:"datasource"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics configures the Prometheus metrics endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Profiling controls Pyroscope continuous profiling.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum level to output: DEBUG, INFO, WARN or ERROR
	// (case-insensitive).
	Level string `mapstructure:"level" yaml:"level"`

	// Format is the output format: text or json.
	Format string `mapstructure:"format" yaml:"format"`

	// Output is where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP server. When Enabled
// is false no metrics are collected.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the host:port the /metrics endpoint binds to.
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// TelemetryConfig controls OpenTelemetry tracing export to an OTLP
// collector.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the trace sampling rate, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes selects which profile types to collect.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types,omitempty"`
}

// Load reads configuration from file, environment, and defaults.
//
// configPath selects an explicit config file; when empty the default search
// path is used (., $HOME/.shelf, /etc/shelf). A missing config file is not
// an error: defaults plus environment overrides apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to path as YAML. The file is written 0600;
// it may contain the secret key.
//
// Durations are rendered as strings ("10s") rather than letting the YAML
// encoder emit raw nanoseconds, which a later Load would misread as
// milliseconds.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	doc := map[string]any{
		"server": map[string]any{
			"host":                cfg.Server.Host,
			"port":                cfg.Server.Port,
			"domains":             cfg.Server.Domains,
			"access_key":          cfg.Server.AccessKey,
			"secret_key":          cfg.Server.SecretKey,
			"read_header_timeout": cfg.Server.ReadHeaderTimeout.String(),
			"idle_timeout":        cfg.Server.IdleTimeout.String(),
			"shutdown_timeout":    cfg.Server.ShutdownTimeout.String(),
		},
		"datasource": map[string]any{
			"driver":                 cfg.Datasource.Driver,
			"engine":                 cfg.Datasource.Engine,
			"path":                   cfg.Datasource.Path,
			"host":                   cfg.Datasource.Host,
			"port":                   cfg.Datasource.Port,
			"db":                     cfg.Datasource.Database,
			"user":                   cfg.Datasource.User,
			"password":               cfg.Datasource.Password,
			"schema":                 cfg.Datasource.Schema,
			"sslmode":                cfg.Datasource.SSLMode,
			"max_connections":        cfg.Datasource.MaxConns,
			"min_connections":        cfg.Datasource.MinConns,
			"test_before_acquire":    cfg.Datasource.TestBeforeAcquire,
			"acquire_timeout":        cfg.Datasource.AcquireTimeout.String(),
			"acquire_slow_threshold": cfg.Datasource.AcquireSlowThreshold.String(),
			"query_timeout":          cfg.Datasource.QueryTimeout.String(),
		},
		"logging": cfg.Logging,
		"metrics": cfg.Metrics,
		"telemetry": map[string]any{
			"enabled":     cfg.Telemetry.Enabled,
			"endpoint":    cfg.Telemetry.Endpoint,
			"insecure":    cfg.Telemetry.Insecure,
			"sample_rate": cfg.Telemetry.SampleRate,
		},
		"profiling": cfg.Profiling,
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper wires environment variables, the config file search path and
// per-key defaults. Registering defaults with viper keeps AutomaticEnv
// working when no config file exists at all.
func setupViper(v *viper.Viper, configPath string) {
	// Example: SHELF_SERVER_PORT=9000, SHELF_DATASOURCE_DRIVER=sqlite
	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".shelf"))
		}
		v.AddConfigPath("/etc/shelf")
	}

	def := DefaultConfig()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.domains", def.Server.Domains)
	v.SetDefault("server.access_key", def.Server.AccessKey)
	v.SetDefault("server.secret_key", def.Server.SecretKey)
	v.SetDefault("server.read_header_timeout", def.Server.ReadHeaderTimeout)
	v.SetDefault("server.idle_timeout", def.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	v.SetDefault("datasource.driver", def.Datasource.Driver)
	v.SetDefault("datasource.engine", def.Datasource.Engine)
	v.SetDefault("datasource.path", def.Datasource.Path)
	v.SetDefault("datasource.host", def.Datasource.Host)
	v.SetDefault("datasource.port", def.Datasource.Port)
	v.SetDefault("datasource.db", def.Datasource.Database)
	v.SetDefault("datasource.user", def.Datasource.User)
	v.SetDefault("datasource.password", def.Datasource.Password)
	v.SetDefault("datasource.schema", def.Datasource.Schema)
	v.SetDefault("datasource.sslmode", def.Datasource.SSLMode)
	v.SetDefault("datasource.max_connections", def.Datasource.MaxConns)
	v.SetDefault("datasource.min_connections", def.Datasource.MinConns)
	v.SetDefault("datasource.test_before_acquire", def.Datasource.TestBeforeAcquire)
	v.SetDefault("datasource.acquire_timeout", def.Datasource.AcquireTimeout)
	v.SetDefault("datasource.acquire_slow_threshold", def.Datasource.AcquireSlowThreshold)
	v.SetDefault("datasource.query_timeout", def.Datasource.QueryTimeout)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output", def.Logging.Output)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.listen", def.Metrics.Listen)
	v.SetDefault("telemetry.enabled", def.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", def.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", def.Telemetry.Insecure)
	v.SetDefault("telemetry.sample_rate", def.Telemetry.SampleRate)
	v.SetDefault("profiling.enabled", def.Profiling.Enabled)
	v.SetDefault("profiling.endpoint", def.Profiling.Endpoint)
	v.SetDefault("profiling.profile_types", def.Profiling.ProfileTypes)
}

// readConfigFile reads the configuration file if one exists. A missing file
// is fine; any other read error is not.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// configDecodeHooks combines the decode hooks for custom types. The comma
// hook lets SHELF_SERVER_DOMAINS carry several domains in one variable.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts config values to time.Duration. Strings use
// Go duration syntax ("5s", "1500ms"); bare numbers are milliseconds, so
// `acquire_slow_threshold: 1000` means one second.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case float64:
			return time.Duration(v) * time.Millisecond, nil
		default:
			return data, nil
		}
	}
}
