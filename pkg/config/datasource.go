package config

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/shelf/pkg/catalog"
	"github.com/marmos91/shelf/pkg/catalog/badger"
	gormcatalog "github.com/marmos91/shelf/pkg/catalog/gorm"
	"github.com/marmos91/shelf/pkg/catalog/memory"
	"github.com/marmos91/shelf/pkg/catalog/postgres"
)

// Catalog driver names accepted in datasource.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

// PostgreSQL engine names accepted in datasource.engine.
const (
	EnginePgx  = "pgx"
	EngineGorm = "gorm"
)

// DatasourceConfig selects and configures the metadata catalog driver.
type DatasourceConfig struct {
	// Driver selects the catalog backend: postgres, sqlite, badger or
	// memory. Default: postgres.
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Engine selects the PostgreSQL access layer: pgx (native pool) or
	// gorm. Only meaningful with the postgres driver. Default: pgx.
	Engine string `mapstructure:"engine" yaml:"engine,omitempty"`

	// Path is the data location for the embedded drivers: the database
	// file for sqlite, the data directory for badger.
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// Connection parameters (postgres).
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"db" yaml:"db"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	Schema   string `mapstructure:"schema" yaml:"schema"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`

	// Pool sizing (postgres/pgx).
	MaxConns int32 `mapstructure:"max_connections" yaml:"max_connections"`
	MinConns int32 `mapstructure:"min_connections" yaml:"min_connections"`

	// TestBeforeAcquire validates pooled connections with a ping before
	// handing them out.
	TestBeforeAcquire bool `mapstructure:"test_before_acquire" yaml:"test_before_acquire"`

	// AcquireTimeout bounds waiting for a pooled connection.
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout" yaml:"acquire_timeout"`

	// AcquireSlowThreshold logs a warning when connection acquisition is
	// slower than this.
	AcquireSlowThreshold time.Duration `mapstructure:"acquire_slow_threshold" yaml:"acquire_slow_threshold"`

	// QueryTimeout bounds individual catalog queries.
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
}

// ApplyDefaults fills in zero values.
func (c *DatasourceConfig) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.Engine == "" {
		c.Engine = EnginePgx
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.Database == "" {
		c.Database = "shelf"
	}
	if c.User == "" {
		c.User = "shelf"
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
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}
}

// Validate checks the configuration for the selected driver.
func (c *DatasourceConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Engine != EnginePgx && c.Engine != EngineGorm {
			return fmt.Errorf("invalid datasource engine: %s (must be pgx or gorm)", c.Engine)
		}
		return c.postgresConfig().Validate()
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("datasource path is required for the sqlite driver")
		}
	case DriverBadger:
		if c.Path == "" {
			return fmt.Errorf("datasource path is required for the badger driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid datasource driver: %s (must be one of: postgres, sqlite, badger, memory)", c.Driver)
	}
	return nil
}

// postgresConfig projects the datasource config onto the pgx driver config.
func (c *DatasourceConfig) postgresConfig() *postgres.Config {
	return &postgres.Config{
		Host:                 c.Host,
		Port:                 c.Port,
		Database:             c.Database,
		User:                 c.User,
		Password:             c.Password,
		Schema:               c.Schema,
		SSLMode:              c.SSLMode,
		MaxConns:             c.MaxConns,
		MinConns:             c.MinConns,
		TestBeforeAcquire:    c.TestBeforeAcquire,
		AcquireTimeout:       c.AcquireTimeout,
		AcquireSlowThreshold: c.AcquireSlowThreshold,
		QueryTimeout:         c.QueryTimeout,
		AutoMigrate:          true,
	}
}

// OpenCatalog opens the catalog named by the datasource configuration.
// The returned catalog is ready to serve; drivers that need schema setup
// migrate on open.
func OpenCatalog(ctx context.Context, cfg DatasourceConfig) (catalog.Catalog, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid datasource configuration: %w", err)
	}

	switch cfg.Driver {
	case DriverMemory:
		return memory.New(), nil

	case DriverBadger:
		store, err := badger.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case DriverSQLite:
		store, err := gormcatalog.New(&gormcatalog.Config{
			Type:   gormcatalog.DatabaseTypeSQLite,
			SQLite: gormcatalog.SQLiteConfig{Path: cfg.Path},
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case DriverPostgres:
		if cfg.Engine == EngineGorm {
			store, err := gormcatalog.New(&gormcatalog.Config{
				Type: gormcatalog.DatabaseTypePostgres,
				Postgres: gormcatalog.PostgresConfig{
					Host:         cfg.Host,
					Port:         cfg.Port,
					Database:     cfg.Database,
					User:         cfg.User,
					Password:     cfg.Password,
					SSLMode:      cfg.SSLMode,
					MaxOpenConns: int(cfg.MaxConns),
					MaxIdleConns: int(cfg.MinConns),
				},
			})
			if err != nil {
				return nil, err
			}
			return store, nil
		}
		store, err := postgres.New(ctx, cfg.postgresConfig())
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("invalid datasource driver: %s", cfg.Driver)
	}
}
