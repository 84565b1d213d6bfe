package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/modgate/bootstrap"
	"github.com/artpar/modgate/config"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show the compiled route table",
	Long: `Compile the configured routes and print the resulting table:
each route with its steps and the parameters it accepts from callers.

Static path arguments never appear in the parameter list; they are
fixed at compile time and cannot be overridden by callers.`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg.Logging.Level = "error"

	a, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	table := a.Routes.Table()
	if table == nil || table.Len() == 0 {
		fmt.Println("No routes configured.")
		return nil
	}

	for _, desc := range table.Describe() {
		fmt.Printf("%s", desc.Name)
		if desc.Broadcast {
			fmt.Printf("  [broadcast]")
		}
		if desc.Schedule != "" {
			fmt.Printf("  [schedule: %s]", desc.Schedule)
		}
		fmt.Println()
		if desc.Description != "" {
			fmt.Printf("  %s\n", desc.Description)
		}
		for _, step := range desc.Steps {
			fmt.Printf("  -> %s\n", step)
		}
		if len(desc.Parameters) > 0 {
			var names []string
			for _, p := range desc.Parameters {
				name := p.Name
				if !p.Required() {
					name += "?"
				}
				names = append(names, name)
			}
			fmt.Printf("  params: %s\n", strings.Join(names, ", "))
		}
		fmt.Println()
	}
	return nil
}
