package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modgate",
	Short: "Route resolution and dispatch engine for modular command pipelines",
	Long: `Modgate turns declarative route configurations into multi-step
command pipelines across feature modules, served over HTTP and the CLI.

Quick start:
  modgate serve            # Start the HTTP server
  modgate routes           # Show the compiled route table
  modgate call <route>     # Dispatch a route from the command line

Management:
  modgate modules          # List registered modules and their commands
  modgate validate         # Validate the configuration file`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// A .env file next to the binary supplies MODGATE_* overrides; its
	// absence is not an error.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "modgate.yaml", "config file path")
}
