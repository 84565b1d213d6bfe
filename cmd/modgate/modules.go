package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/modgate/bootstrap"
	"github.com/artpar/modgate/config"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List registered modules and their commands",
	RunE:  runModules,
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}

func runModules(cmd *cobra.Command, args []string) error {
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

	for _, info := range a.Routes.Modules() {
		fmt.Printf("%s - %s\n", info.Name, info.Description)
		for _, c := range info.Commands {
			fmt.Printf("  %s", c.Name)
			for _, p := range c.Parameters {
				if p.Required() {
					fmt.Printf(" --%s <%s>", p.Name, p.Type)
				} else {
					fmt.Printf(" [--%s <%s>]", p.Name, p.Type)
				}
			}
			if c.Description != "" {
				fmt.Printf("  # %s", c.Description)
			}
			fmt.Println()
		}
		fmt.Println()
	}
	return nil
}
