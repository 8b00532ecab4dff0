package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// missingPath returns a config path that does not exist, so Load falls
// back to defaults plus environment overrides.
func missingPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.yaml")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missingPath(t))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8014 {
		t.Errorf("server defaults = %s:%d, want localhost:8014", cfg.Server.Host, cfg.Server.Port)
	}
	if !cfg.Server.Anonymous() {
		t.Error("default config should be anonymous")
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Datasource.Driver != DriverPostgres || cfg.Datasource.Engine != EnginePgx {
		t.Errorf("datasource = %s/%s, want postgres/pgx", cfg.Datasource.Driver, cfg.Datasource.Engine)
	}
	if cfg.Datasource.Port != 5432 || cfg.Datasource.Database != "shelf" || cfg.Datasource.User != "shelf" {
		t.Errorf("datasource connection defaults wrong: %+v", cfg.Datasource)
	}
	if cfg.Datasource.MaxConns != 10 || cfg.Datasource.MinConns != 3 {
		t.Errorf("pool sizing = %d/%d, want 10/3", cfg.Datasource.MaxConns, cfg.Datasource.MinConns)
	}
	if cfg.Datasource.AcquireSlowThreshold != time.Second {
		t.Errorf("acquire slow threshold = %v, want 1s", cfg.Datasource.AcquireSlowThreshold)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stdout" {
		t.Errorf("logging defaults wrong: %+v", cfg.Logging)
	}
	if cfg.Metrics.Enabled || cfg.Metrics.Listen != "127.0.0.1:9090" {
		t.Errorf("metrics defaults wrong: %+v", cfg.Metrics)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("sample rate = %g, want 1.0", cfg.Telemetry.SampleRate)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9100
  access_key: AKID
  secret_key: sekrit
  shutdown_timeout: 30s
datasource:
  driver: sqlite
  path: /var/lib/shelf/catalog.db
  acquire_slow_threshold: 250
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Server.AccessKey != "AKID" || cfg.Server.SecretKey != "sekrit" {
		t.Errorf("credentials not loaded: %+v", cfg.Server)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("shutdown timeout = %v, want 30s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Datasource.Driver != DriverSQLite || cfg.Datasource.Path != "/var/lib/shelf/catalog.db" {
		t.Errorf("datasource = %+v", cfg.Datasource)
	}
	// Bare numbers are milliseconds.
	if cfg.Datasource.AcquireSlowThreshold != 250*time.Millisecond {
		t.Errorf("acquire slow threshold = %v, want 250ms", cfg.Datasource.AcquireSlowThreshold)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Host != "localhost" {
		t.Errorf("host = %q, want localhost", cfg.Server.Host)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SHELF_SERVER_PORT", "9200")
	t.Setenv("SHELF_DATASOURCE_DRIVER", "memory")
	t.Setenv("SHELF_LOGGING_LEVEL", "warn")

	cfg, err := Load(missingPath(t))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9200 {
		t.Errorf("port = %d, want 9200 from environment", cfg.Server.Port)
	}
	if cfg.Datasource.Driver != DriverMemory {
		t.Errorf("driver = %q, want memory from environment", cfg.Datasource.Driver)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn from environment", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("SHELF_DATASOURCE_DRIVER", "oracle")

	if _, err := Load(missingPath(t)); err == nil {
		t.Fatal("Load() accepted an unknown datasource driver")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(cfg *Config) {}, false},
		{"access key without secret", func(cfg *Config) {
			cfg.Server.AccessKey = "AKID"
		}, true},
		{"secret without access key", func(cfg *Config) {
			cfg.Server.SecretKey = "sekrit"
		}, true},
		{"domain with path", func(cfg *Config) {
			cfg.Server.Domains = []string{"s3.example.com/api"}
		}, true},
		{"port out of range", func(cfg *Config) {
			cfg.Server.Port = 70000
		}, true},
		{"unknown driver", func(cfg *Config) {
			cfg.Datasource.Driver = "oracle"
		}, true},
		{"sqlite without path", func(cfg *Config) {
			cfg.Datasource.Driver = DriverSQLite
			cfg.Datasource.Path = ""
		}, true},
		{"badger without path", func(cfg *Config) {
			cfg.Datasource.Driver = DriverBadger
			cfg.Datasource.Path = ""
		}, true},
		{"bad engine", func(cfg *Config) {
			cfg.Datasource.Engine = "sqlx"
		}, true},
		{"memory driver needs nothing", func(cfg *Config) {
			cfg.Datasource.Driver = DriverMemory
		}, false},
		{"bad log level", func(cfg *Config) {
			cfg.Logging.Level = "verbose"
		}, true},
		{"bad log format", func(cfg *Config) {
			cfg.Logging.Format = "logfmt"
		}, true},
		{"sample rate out of range", func(cfg *Config) {
			cfg.Telemetry.SampleRate = 1.5
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelf", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 9300
	cfg.Server.AccessKey = "AKID"
	cfg.Server.SecretKey = "sekrit"
	cfg.Datasource.Driver = DriverBadger
	cfg.Datasource.Path = "/var/lib/shelf/catalog"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Server.Port != 9300 || loaded.Server.AccessKey != "AKID" {
		t.Errorf("server round trip = %+v", loaded.Server)
	}
	if loaded.Datasource.Driver != DriverBadger || loaded.Datasource.Path != "/var/lib/shelf/catalog" {
		t.Errorf("datasource round trip = %+v", loaded.Datasource)
	}
}
