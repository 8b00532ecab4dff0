// Package commands implements the CLI commands for the shelf server.
package commands

import (
	configcmd "github.com/marmos91/shelf/cmd/shelf/commands/config"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Shelf - S3-compatible object storage gateway",
	Long: `Shelf serves an S3-compatible HTTP API over a plain directory tree.
Object bytes live as files under a configured root; object metadata lives
in a catalog database (PostgreSQL, SQLite, Badger or in-memory).

Use "shelf [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default search: ., $HOME/.shelf, /etc/shelf)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(uploadsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configcmd.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
