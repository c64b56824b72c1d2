package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/pmaxcheck/pkg/collect"
	"github.com/danpilch/pmaxcheck/pkg/config"
	"github.com/danpilch/pmaxcheck/pkg/debug"
	"github.com/danpilch/pmaxcheck/pkg/logging"
	"github.com/danpilch/pmaxcheck/pkg/metrics"
	"github.com/danpilch/pmaxcheck/pkg/output"
	"github.com/danpilch/pmaxcheck/pkg/report"
	"github.com/danpilch/pmaxcheck/pkg/runner"
	"github.com/danpilch/pmaxcheck/pkg/unisphere"
)

// checkRun holds everything one invocation of the check needs.
type checkRun struct {
	cfg       *config.Config
	logger    *logrus.Logger
	source    unisphere.Source
	timed     *debug.TimedSource
	collector *collect.Collector
	formatter *output.Formatter
	exporter  *metrics.Exporter
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.v, config.DiscoverPath(a.cfgFile))
	if err != nil {
		return nil, err
	}
	if a.jsonOut {
		cfg.Output = string(output.FormatJSON)
	}
	return cfg, nil
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	a.exitCode = exitUnknown

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.Output)
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
	if a.trace {
		if t, ok := src.(interface{ SetTracer(unisphere.Tracer) }); ok {
			t.SetTracer(debug.NewTraceLogger(a.stderr))
		}
	}

	cr := &checkRun{
		cfg:       cfg,
		logger:    logger,
		source:    src,
		collector: collect.NewCollector(logger),
		formatter: output.NewFormatter(format, a.stdout),
	}
	if a.timing {
		cr.timed = debug.NewTimedSource(src)
		cr.source = cr.timed
	}
	if a.textfile != "" || a.pprofAddr != "" {
		cr.exporter = metrics.NewExporter()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if a.watch > 0 {
		return a.watchLoop(ctx, cr)
	}

	rep, err := a.once(ctx, cr)
	if err != nil {
		return err
	}
	a.exitCode = rep.ExitCode()
	return nil
}

// newSource builds the configured metric source.
func newSource(cfg *config.Config, logger *logrus.Logger) (unisphere.Source, error) {
	switch cfg.Source.Type {
	case config.SourceREST:
		return unisphere.NewRESTSource(unisphere.RESTConfig{
			Host:       cfg.Unisphere.Host,
			Port:       cfg.Unisphere.Port,
			Username:   cfg.Unisphere.Username,
			Password:   cfg.Unisphere.Password,
			VerifyTLS:  cfg.Unisphere.VerifyTLS,
			APIVersion: cfg.Unisphere.APIVersion,
			Timeout:    cfg.RequestTimeout(),
			ArrayID:    cfg.ArrayID,
		}, logger), nil
	case config.SourceFile:
		return unisphere.NewFileSource(cfg.Source.Snapshot, cfg.ArrayID), nil
	case config.SourceCommand:
		r := runner.New(cfg.General.OutputPath, cfg.CommandTimeout(), logger)
		return unisphere.NewCommandSource(r, cfg.Source.Command, cfg.Source.OutputFile, cfg.Source.Recreate, cfg.ArrayID), nil
	}
	return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
}

// once runs a single collection, renders it and writes the optional outputs.
func (a *app) once(ctx context.Context, cr *checkRun) (report.Report, error) {
	cfg := cr.cfg
	timeout := cfg.RequestTimeout()
	if cfg.Source.Type == config.SourceCommand {
		timeout += cfg.CommandTimeout()
	}
	col, err := cr.collector.Collect(ctx, cr.source, collect.Options{
		SRPID:       cfg.SRPID,
		AlertWindow: cfg.AlertWindowDuration(),
		Timeout:     timeout,
	})
	if err != nil {
		// The source could not be loaded at all; report everything as absent.
		cr.logger.WithFields(logrus.Fields{
			"source": cr.source.Name(),
			"error":  err,
		}).Error("Source unavailable")
		if col.ArrayID == "" {
			col.ArrayID = cfg.ArrayID
		}
		col.Errors = map[string]string{"prepare": err.Error()}
	}

	if a.dumpRaw {
		debug.DumpRaw(a.stderr, col)
	}
	if cr.timed != nil {
		debug.TimingReport(a.stderr, cr.source.Name(), cr.timed.Timings())
	}

	rep := report.Build(col, cfg.Thresholds, cfg.AlertWindowDuration())
	rep.LogSanity(cr.logger)

	if err := cr.formatter.Render(rep); err != nil {
		return rep, fmt.Errorf("cannot render report: %w", err)
	}

	if cr.exporter != nil {
		cr.exporter.Update(rep)
		if a.textfile != "" {
			if err := cr.exporter.WriteTextfile(a.textfile); err != nil {
				cr.logger.WithError(err).Warn("Cannot write metrics textfile")
			}
		}
	}
	return rep, nil
}

// watchLoop re-runs the check on every tick until interrupted. The exit code
// reflects the last completed check.
func (a *app) watchLoop(ctx context.Context, cr *checkRun) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cr.formatter.SetSparklineTracker(output.NewSparklineTracker(30))

	if a.pprofAddr != "" {
		srv, err := debug.StartServer(a.pprofAddr, cr.exporter.Registry(), cr.logger)
		if err != nil {
			return err
		}
		defer srv.Stop()
	}

	ticker := time.NewTicker(a.watch)
	defer ticker.Stop()

	for {
		rep, err := a.once(ctx, cr)
		if err != nil {
			return err
		}
		a.exitCode = rep.ExitCode()
		cr.logger.WithFields(logrus.Fields{
			"status": rep.Status(),
			"next":   a.watch,
		}).Debug("Check complete")

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprintln(a.stdout)
		}
	}
}
