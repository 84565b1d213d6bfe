package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/modgate/bootstrap"
	"github.com/artpar/modgate/config"
	"github.com/artpar/modgate/core/route"
)

var callCmd = &cobra.Command{
	Use:   "call <route> [--param value ...]",
	Short: "Dispatch a route from the command line",
	Long: `Dispatch a named route with the given arguments.

Arguments use the same --key value grammar as static route path
arguments. A flag without a value is treated as "true". Anything the
route does not declare is dropped before it reaches a module.

The exit code is 0 for a success response and 1 otherwise.

Examples:
  modgate call hello
  modgate call greet --text "good morning" --repeat 2
  modgate call backup --dry-run`,
	Args: cobra.MinimumNArgs(1),
	// The route's own flags must reach ParseArgs untouched.
	DisableFlagParsing: true,
	RunE:               runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		return cmd.Help()
	}
	name := args[0]

	raw, err := route.ParseArgs(args[1:])
	if err != nil {
		return fmt.Errorf("bad arguments: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	// The CLI writes results to stdout; keep logs out of the way.
	cfg.Logging.Level = "error"

	a, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.Routes.Execute(context.Background(), name, raw)
	if len(resp.Data) > 0 {
		fmt.Println(string(resp.Data))
	}
	if resp.IsError() {
		fmt.Fprintf(os.Stderr, "route %q failed with code %d\n", name, resp.Code)
		os.Exit(1)
	}
	return nil
}
