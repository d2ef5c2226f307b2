// Package cmd defines command-line interface commands for quarry.
package cmd

import (
	"github.com/spf13/cobra"
)

var version string

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Template-driven function build CLI",
	Long:  "quarry is a CLI tool for building the functions declared in a deployment template",
}

// Execute runs the root CLI command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = version
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
