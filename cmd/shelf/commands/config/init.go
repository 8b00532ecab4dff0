package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/shelf/internal/cli/prompt"
	"github.com/marmos91/shelf/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively generate a configuration file",
	Long: `Generate a Shelf configuration file by answering a few questions.

The file is written with mode 0600 since it may contain the secret key.

Examples:
  # Write ./config.yaml
  shelf config init

  # Write to a custom path
  shelf config init --config /etc/shelf/config.yaml

  # Overwrite an existing file
  shelf config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFile(cmd)
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	cfg, err := promptConfig()
	if err != nil {
		if prompt.IsAborted(err) {
			return fmt.Errorf("aborted")
		}
		return err
	}

	if err := config.Save(cfg, path); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Printf("Configuration file created at: %s\n\n", abs)
	fmt.Println("Next steps:")
	fmt.Println("  1. Review the generated file")
	fmt.Printf("  2. Start the server: shelf serve /path/to/root --config %s\n", path)
	return nil
}

// promptConfig walks the user through the essential settings.
func promptConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	host, err := prompt.Input("Listen host", cfg.Server.Host)
	if err != nil {
		return nil, err
	}
	cfg.Server.Host = host

	port, err := prompt.Port("Listen port", cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = port

	authenticated, err := prompt.Confirm("Require SigV4 authentication", false)
	if err != nil {
		return nil, err
	}
	if authenticated {
		accessKey, err := prompt.Input("Access key ID", "")
		if err != nil {
			return nil, err
		}
		secretKey, err := prompt.Password("Secret access key")
		if err != nil {
			return nil, err
		}
		if accessKey == "" || secretKey == "" {
			return nil, fmt.Errorf("access key and secret key must both be non-empty")
		}
		cfg.Server.AccessKey = accessKey
		cfg.Server.SecretKey = secretKey
	}

	driver, err := prompt.Select("Catalog driver", []string{
		config.DriverPostgres, config.DriverSQLite, config.DriverBadger, config.DriverMemory,
	})
	if err != nil {
		return nil, err
	}
	cfg.Datasource.Driver = driver

	switch driver {
	case config.DriverPostgres:
		if cfg.Datasource.Host, err = prompt.Input("PostgreSQL host", cfg.Datasource.Host); err != nil {
			return nil, err
		}
		if cfg.Datasource.Port, err = prompt.Port("PostgreSQL port", cfg.Datasource.Port); err != nil {
			return nil, err
		}
		if cfg.Datasource.Database, err = prompt.Input("Database name", cfg.Datasource.Database); err != nil {
			return nil, err
		}
		if cfg.Datasource.User, err = prompt.Input("Database user", cfg.Datasource.User); err != nil {
			return nil, err
		}
		if cfg.Datasource.Password, err = prompt.Password("Database password"); err != nil {
			return nil, err
		}
	case config.DriverSQLite:
		if cfg.Datasource.Path, err = prompt.Input("Database file path", "shelf.db"); err != nil {
			return nil, err
		}
	case config.DriverBadger:
		if cfg.Datasource.Path, err = prompt.Input("Data directory", "shelf-catalog"); err != nil {
			return nil, err
		}
	}

	level, err := prompt.Select("Log level", []string{"debug", "info", "warn", "error"})
	if err != nil {
		return nil, err
	}
	cfg.Logging.Level = strings.ToLower(level)

	return cfg, nil
}
