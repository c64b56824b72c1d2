package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danpilch/pmaxcheck/pkg/benchmark"
	"github.com/danpilch/pmaxcheck/pkg/logging"
)

func newBenchCommand(a *app) *cobra.Command {
	opts := benchmark.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure upstream fetch latency",
		Long: `bench calls each upstream fetch repeatedly and reports latency
percentiles, the number of failed calls and how much the returned values varied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, closeLog, err := logging.New(logging.Options{
				Level:   cfg.Logging.Level,
				Path:    cfg.Logging.Path,
				File:    cfg.Logging.File,
				Verbose: a.verbose,
				Console: a.stderr,
			})
			if err != nil {
				return err
			}
			defer closeLog()

			src, err := newSource(cfg, logger)
			if err != nil {
				return err
			}

			opts.SRPID = cfg.SRPID
			opts.AlertWindow = cfg.AlertWindowDuration()
			results, err := benchmark.Run(cmd.Context(), src, opts)
			if err != nil {
				return err
			}
			benchmark.RenderResults(a.stdout, src.Name(), results, benchmark.MeasureOverhead())
			a.exitCode = 0
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Iterations, "iterations", opts.Iterations, "calls per fetch")
	cmd.Flags().IntVar(&opts.Warmup, "warmup", opts.Warmup, "unmeasured calls per fetch before timing")
	return cmd
}
