package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relentless-eng/relentless/internal/config"
	"github.com/relentless-eng/relentless/internal/errs"
	"github.com/relentless-eng/relentless/internal/logging"
	"github.com/relentless-eng/relentless/internal/protocol/grpcproto"
	"github.com/relentless-eng/relentless/internal/protocol/httpproto"
	"github.com/relentless-eng/relentless/internal/record"
	"github.com/relentless-eng/relentless/internal/report"
	"github.com/relentless-eng/relentless/internal/runner"
)

// rootCmd is the single `relentless` entrypoint; every flag hangs off the
// root command directly, there is no subcommand tree.
func rootCmd() *cobra.Command {
	opts := config.NewCLIOptions()
	var (
		destinationFlags []string
		sequentialFlags  []string
		measureFlags     []string
		percentileFlags  []string
		logFormat        string
	)

	cmd := &cobra.Command{
		Use:   "relentless",
		Short: "Declarative comparison and assault testing for HTTP and gRPC services",
		Long: `relentless runs declarative Config files against one or more destinations,
comparing their responses or folding them into latency/throughput statistics.

Examples:
  relentless --file cases.yaml
  relentless --file cases.yaml --destination staging=https://staging.example.com
  relentless --file cases.yaml --strict --report-format markdown`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range destinationFlags {
				name, uri, err := config.ParseDestinationFlag(d)
				if err != nil {
					return err
				}
				opts.AddDestinationOverride(name, uri)
			}
			for _, s := range sequentialFlags {
				layer, err := config.ParseLayer(s)
				if err != nil {
					return err
				}
				opts.Sequential[layer] = true
			}
			if len(measureFlags) > 0 {
				opts.Measure = map[config.Layer]bool{}
				for _, m := range measureFlags {
					layer, err := config.ParseLayer(m)
					if err != nil {
						return err
					}
					opts.Measure[layer] = true
				}
			}
			if len(percentileFlags) > 0 {
				opts.Percentiles = opts.Percentiles[:0]
				for _, p := range percentileFlags {
					v, err := config.ParsePercentileFlag(p)
					if err != nil {
						return err
					}
					opts.Percentiles = append(opts.Percentiles, v)
				}
			}
			if len(opts.Files) == 0 {
				return &errs.InterfaceError{Msg: "at least one --file is required"}
			}

			log := logging.New(logFormat)
			return runAll(cmd.Context(), opts, log)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Files, "file", nil, "config file to run (repeatable)")
	cmd.Flags().StringArrayVar(&destinationFlags, "destination", nil, "name=uri destination override (repeatable)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat failing cases as run failures even when marked allow")
	cmd.Flags().BoolVar(&opts.NgOnly, "ng-only", false, "render only failing cases")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable ANSI color in console output")
	cmd.Flags().StringVar(&opts.ReportFormat, "report-format", opts.ReportFormat, "report format: null|console|markdown")
	cmd.Flags().StringVar(&opts.OutputRecord, "output-record", "", "directory to record raw request/response artifacts under")
	cmd.Flags().StringArrayVar(&sequentialFlags, "sequential", nil, "run this fan-out layer sequentially: configs|testcases|repeats (repeatable)")
	cmd.Flags().StringArrayVar(&measureFlags, "measure", nil, "emit aggregates at this fan-out layer: configs|testcases|repeats (repeatable)")
	cmd.Flags().StringArrayVar(&percentileFlags, "percentile", nil, "latency percentile to report, 0 < p < 100 (repeatable)")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "diagnostic log format: text|json")

	return cmd
}

// runAll loads every --file config (dispatching HTTP vs gRPC per
// config.Protocol), builds a runner.WorkerFunc for each, runs them under
// runner.RunControl, and renders the result. It exits the process with
// status 1 when the run is not allowed, and returns a non-nil error only
// when rendering fails.
func runAll(ctx context.Context, opts *config.CLIOptions, log *logrus.Logger) error {
	var recordCfg *record.Config
	if opts.OutputRecord != "" {
		recordCfg = &record.Config{OutputDir: opts.OutputRecord}
	}

	// A config that fails to load aborts only itself; sibling configs
	// still run, and the exit code reflects the reports that did complete.
	workers := make([]runner.WorkerFunc, 0, len(opts.Files))
	for _, file := range opts.Files {
		entry := logging.ForConfig(log, file)

		proto, err := config.Protocol(file)
		if err != nil {
			entry.WithError(err).Error("failed to inspect config protocol")
			continue
		}

		switch proto {
		case "http":
			cfg, err := config.Load[httpproto.Request, httpproto.Response](file)
			if err != nil {
				entry.WithError(err).Error("failed to load config")
				continue
			}
			workers = append(workers, buildHTTPWorker(cfg, opts, recordCfg))
		case "grpc":
			cfg, err := config.Load[grpcproto.Request, grpcproto.Response](file)
			if err != nil {
				entry.WithError(err).Error("failed to load config")
				continue
			}
			w, err := buildGRPCWorker(cfg, opts, recordCfg)
			if err != nil {
				entry.WithError(err).Error("failed to build gRPC worker")
				continue
			}
			workers = append(workers, w)
		default:
			entry.WithError(&errs.InterfaceError{Msg: fmt.Sprintf("unknown protocol %q in %q", proto, file)}).
				Error("failed to dispatch config")
		}
	}

	rep := runner.RunControl(ctx, workers, opts.Sequential[config.LayerConfigs])

	if opts.NgOnly {
		rep = filterFailing(rep)
	}

	if err := render(rep, opts); err != nil {
		return err
	}

	if !rep.Allow(opts.Strict) {
		os.Exit(1)
	}
	return nil
}

func render(rep *report.Report, opts *config.CLIOptions) error {
	measure := map[string]bool{}
	for layer, on := range opts.Measure {
		measure[string(layer)] = on
	}

	switch opts.ReportFormat {
	case "null":
		report.RenderNull(rep, opts.Strict)
		return nil
	case "markdown":
		report.RenderMarkdown(os.Stdout, rep, opts.Strict, measure)
		return nil
	case "console", "":
		if opts.NoColor {
			report.DisableColor()
		}
		report.RenderConsole(os.Stdout, rep, opts.Strict, measure)
		return nil
	default:
		return &errs.InterfaceError{Msg: fmt.Sprintf("unknown report format %q", opts.ReportFormat)}
	}
}

// filterFailing keeps only non-passing cases per worker (--ng-only),
// dropping workers left with no cases afterward.
func filterFailing(rep *report.Report) *report.Report {
	out := make([]*report.WorkerReport, 0, len(rep.Workers))
	for _, w := range rep.Workers {
		cases := make([]*report.CaseReport, 0, len(w.Cases))
		for _, c := range w.Cases {
			if !c.Pass() {
				cases = append(cases, c)
			}
		}
		if len(cases) > 0 {
			out = append(out, &report.WorkerReport{Name: w.Name, Cases: cases})
		}
	}
	return &report.Report{Workers: out}
}
