package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/pmaxcheck/pkg/collect"
	"github.com/danpilch/pmaxcheck/pkg/config"
	"github.com/danpilch/pmaxcheck/pkg/crosscheck"
	"github.com/danpilch/pmaxcheck/pkg/logging"
	"github.com/danpilch/pmaxcheck/pkg/unisphere"
)

func newCrossCheckCommand(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "crosscheck",
		Short: "Compare the figures reported by every configured source",
		Long: `crosscheck collects the same array from every source that is configured
(REST API, snapshot file and snapshot command) and flags figures that disagree.

Exit codes: 0 all sources agree, 1 small drift, 2 conflict, 3 fewer than two sources.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.exitCode = exitUnknown

			cfg, err := a.loadConfig()
			if err != nil {
				return err
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

			sources, err := configuredSources(cfg, logger)
			if err != nil {
				return err
			}
			if len(sources) < 2 {
				return fmt.Errorf("crosscheck needs at least two configured sources, found %d", len(sources))
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			collector := collect.NewCollector(logger)
			cols := make([]collect.Collection, 0, len(sources))
			for _, src := range sources {
				col, err := collector.Collect(ctx, src, collect.Options{
					SRPID:       cfg.SRPID,
					AlertWindow: cfg.AlertWindowDuration(),
					Timeout:     cfg.RequestTimeout() + cfg.CommandTimeout(),
				})
				if err != nil {
					logger.WithFields(logrus.Fields{
						"source": src.Name(),
						"error":  err,
					}).Warn("Source unavailable, skipping")
					continue
				}
				cols = append(cols, col)
			}

			res := crosscheck.Run(cols)
			if jsonOut || a.jsonOut {
				if err := crosscheck.ReportJSON(a.stdout, res); err != nil {
					return err
				}
			} else {
				crosscheck.Report(a.stdout, res)
			}
			a.exitCode = res.ExitCode()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	return cmd
}

// configuredSources builds every source whose settings are complete.
func configuredSources(cfg *config.Config, logger *logrus.Logger) ([]unisphere.Source, error) {
	var sources []unisphere.Source
	for _, typ := range []string{config.SourceREST, config.SourceFile, config.SourceCommand} {
		c := *cfg
		c.Source.Type = typ
		if err := c.Validate(); err != nil {
			logger.WithField("source", typ).Debugf("Source not configured: %v", err)
			continue
		}
		src, err := newSource(&c, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
