// Package config implements the `shelf config` command group.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent `config` command.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the Shelf configuration",
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(validateCmd)
}

// configFile returns the persistent --config flag value.
func configFile(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
