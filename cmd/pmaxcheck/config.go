package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danpilch/pmaxcheck/pkg/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML (password masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DiscoverPath(a.cfgFile)
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.YAML()
			if err != nil {
				return fmt.Errorf("cannot encode config: %w", err)
			}
			fmt.Fprintf(a.stdout, "# config file: %s\n", path)
			a.stdout.Write(data)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(a.stderr, "warning: %v\n", err)
			}
			a.exitCode = 0
			return nil
		},
	})
	return cmd
}
