package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/shelf/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load and validate the Shelf configuration, including environment
variable overrides.

Examples:
  # Validate the config from the default search path
  shelf config validate

  # Validate a specific file
  shelf config validate --config /etc/shelf/config.yaml`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := configFile(cmd)

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	displayPath := path
	if displayPath == "" {
		displayPath = "(defaults + environment)"
	}

	var warnings []string
	if cfg.Server.Anonymous() {
		warnings = append(warnings, "no credentials configured - the server will accept unauthenticated requests")
	}
	if cfg.Datasource.Driver == config.DriverMemory {
		warnings = append(warnings, "memory catalog - all object metadata is lost on restart")
	}

	fmt.Printf("Configuration: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Listen:          %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Catalog driver:  %s\n", cfg.Datasource.Driver)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
