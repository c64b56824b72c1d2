package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danpilch/pmaxcheck/pkg/config"
)

const exitUnknown = 3

// app carries command state so tests can run the CLI without globals.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	cfgFile   string
	jsonOut   bool
	verbose   bool
	textfile  string
	watch     time.Duration
	pprofAddr string
	timing    bool
	dumpRaw   bool
	trace     bool

	exitCode int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      config.NewViper(),
		stdout: stdout,
		stderr: stderr,
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pmaxcheck",
		Short: "Check storage array health and SRP capacity",
		Long: `pmaxcheck fetches the health score, storage resource pool capacity and
recent alert count of a storage array from its management REST API (or from a
captured snapshot), classifies them against thresholds and prints a report.

Exit codes follow the monitoring-plugin convention:
  0 OK, 1 WARNING, 2 CRITICAL, 3 UNKNOWN`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runCheck,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $PMAXCHECK_CONFIG or $HOME/.pmaxcheck/config.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	d := config.Defaults()
	f := root.Flags()
	f.BoolVar(&a.jsonOut, "json", false, "output in JSON format (same as -o json)")
	f.StringP("output", "o", d.Output, "output format: text, table, json, markdown, tsv")
	f.String("array-id", d.ArrayID, "array serial number")
	f.String("srp", d.SRPID, "storage resource pool to check")
	f.String("alert-window", d.AlertWindow, "how far back to count alerts")
	f.String("source", d.Source.Type, "where to read metrics from: rest, file, command")
	f.String("snapshot", d.Source.Snapshot, "snapshot file for the file source")
	f.String("command", d.Source.Command, "shell command printing a snapshot for the command source")
	f.Bool("recreate", d.Source.Recreate, "rerun the snapshot command even if its output is cached")
	f.Float64("used-warning", d.Thresholds.Used.Warning, "used capacity warning threshold (%)")
	f.Float64("used-critical", d.Thresholds.Used.Critical, "used capacity critical threshold (%)")
	f.Float64("subscribed-warning", d.Thresholds.Subscribed.Warning, "subscribed capacity warning threshold (%)")
	f.Float64("subscribed-critical", d.Thresholds.Subscribed.Critical, "subscribed capacity critical threshold (%)")
	f.StringVar(&a.textfile, "textfile", "", "also write Prometheus metrics to this node_exporter textfile")
	f.DurationVar(&a.watch, "watch", 0, "re-run the check at this interval until interrupted")
	f.StringVar(&a.pprofAddr, "pprof", "", "serve pprof and /metrics on this address while watching")
	f.BoolVar(&a.timing, "timing", false, "print per-fetch timings to stderr")
	f.BoolVar(&a.dumpRaw, "dump-raw", false, "print collected values before evaluation to stderr")
	f.BoolVar(&a.trace, "trace", false, "trace upstream requests to stderr")

	for flag, key := range map[string]string{
		"output":              "output",
		"array-id":            "array_id",
		"srp":                 "srp_id",
		"alert-window":        "alert_window",
		"source":              "source.type",
		"snapshot":            "source.snapshot",
		"command":             "source.command",
		"recreate":            "source.recreate",
		"used-warning":        "thresholds.used.warning",
		"used-critical":       "thresholds.used.critical",
		"subscribed-warning":  "thresholds.subscribed.warning",
		"subscribed-critical": "thresholds.subscribed.critical",
	} {
		_ = a.v.BindPFlag(key, f.Lookup(flag))
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Run the health and capacity check (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runCheck,
	}
	check.Flags().AddFlagSet(f)

	root.AddCommand(check, newBenchCommand(a), newCrossCheckCommand(a), newVersionCommand(a), newConfigCommand(a))
	return root
}
