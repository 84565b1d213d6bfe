package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/modgate/bootstrap"
	"github.com/artpar/modgate/config"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the route dispatch server",
	Long: `Start the modgate HTTP server.

The server will:
  - Load configuration from modgate.yaml (or --config)
  - Register the built-in feature modules
  - Compile the configured routes into a dispatch table
  - Serve the dispatch API and, if enabled, Prometheus metrics

With hot reload enabled, editing the config file or sending SIGHUP
rebuilds the route table; a rejected config keeps the previous table.

Environment variables (for Docker deployments):
  MODGATE_SERVER_HOST       - Listen host (default: 0.0.0.0)
  MODGATE_SERVER_PORT       - Listen port (default: 8080)
  MODGATE_DATABASE_DSN      - Database path (default: modgate.db)
  MODGATE_LOG_LEVEL         - Log level: debug, info, warn, error
  MODGATE_LOG_FORMAT        - Log format: json or console
  MODGATE_DEBUG             - Verbose dispatch errors: true or false

Examples:
  modgate serve
  modgate serve --config /etc/modgate/config.yaml
  modgate serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	var a *bootstrap.App
	var err error

	if hotReload {
		a, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		var cfg *config.Config
		cfg, err = config.Load(cfgFile)
		if err == nil {
			a, err = bootstrap.New(cfg)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		os.Exit(1)
	}

	return a.Run()
}
