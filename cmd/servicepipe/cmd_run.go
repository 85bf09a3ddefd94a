package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dcshock/servicepipe/config"
	"github.com/dcshock/servicepipe/internal/env"
	"github.com/dcshock/servicepipe/internal/logging"
	"github.com/dcshock/servicepipe/observer"
	"github.com/dcshock/servicepipe/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

type runFlags struct {
	file      string
	pipeline  string
	state     []string
	parallel  int
	timeout   time.Duration
	metrics   bool
	markdown  bool
	showState bool
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	// A malformed env value is reported unless its flag is set explicitly.
	envErrs := map[string]error{}
	parallel, err := env.Int("SERVICEPIPE_PARALLEL", 1)
	if err != nil {
		parallel, envErrs["parallel"] = 1, err
	}
	timeout, err := env.Duration("SERVICEPIPE_STAGE_TIMEOUT", 0)
	if err != nil {
		envErrs["timeout"] = err
	}
	markdown, err := env.Bool("SERVICEPIPE_MARKDOWN", false)
	if err != nil {
		envErrs["markdown"] = err
	}

	cmd := &cobra.Command{
		Use:   "run -f <file> -p <pipeline> input...",
		Short: "Run a pipeline once per input",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range []string{"parallel", "timeout", "markdown"} {
				if err := envErrs[name]; err != nil && !cmd.Flags().Changed(name) {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, &flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "Pipelines YAML file (required)")
	f.StringVarP(&flags.pipeline, "pipeline", "p", "", "Pipeline name in the file (required)")
	f.StringArrayVar(&flags.state, "state", nil, "Initial shared state entry key=value (repeatable)")
	f.IntVar(&flags.parallel, "parallel", parallel, "Maximum concurrent runs (0 = unlimited)")
	f.DurationVar(&flags.timeout, "timeout", timeout, "Default per-stage timeout (0 = none)")
	f.BoolVar(&flags.metrics, "metrics", false, "Print Prometheus metrics after the runs")
	f.BoolVar(&flags.markdown, "markdown", markdown, "Render tables as Markdown")
	f.BoolVar(&flags.showState, "show-state", false, "Print the final shared state")

	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("pipeline")
	return cmd
}

func runPipeline(cmd *cobra.Command, flags *runFlags, args []string) error {
	ctx := cmd.Context()
	logger := logging.New("cli")

	multi, err := config.LoadFile(flags.file)
	if err != nil {
		return err
	}
	cfg, ok := multi.Pipelines[flags.pipeline]
	if !ok {
		return fmt.Errorf("pipeline %q not defined in %s", flags.pipeline, flags.file)
	}
	if cfg.Name == "" {
		cfg.Name = flags.pipeline
	}

	initial, err := parseState(flags.state)
	if err != nil {
		return err
	}
	shared := pipeline.NewShared(initial)

	reg := prometheus.NewRegistry()
	metrics, err := observer.NewMetricsObserver(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	observers := config.NewObserverRegistry()
	observers.Register("log", observer.NewLogObserver(logging.New("pipeline")))
	observers.Register("metrics", metrics)

	opts := &config.BuildOptions{
		Observers:      observers,
		DefaultTimeout: flags.timeout,
	}
	if flags.metrics && !contains(cfg.Observers, "metrics") {
		opts.Observer = metrics
	}
	p, err := config.Build(builtinRegistry(), &cfg, shared, opts)
	if err != nil {
		return err
	}

	inputs := make([]any, len(args))
	for i, a := range args {
		inputs[i] = a
	}
	logger.Info("running pipeline", "pipeline", p.Name(), "stages", p.Len(), "inputs", len(inputs), "parallel", flags.parallel)
	results := pipeline.RunAll(ctx, p, inputs, flags.parallel)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderResults(args, results, flags.markdown))

	if flags.showState {
		state, err := shared.Read(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, renderState(state, flags.markdown))
	}
	if flags.metrics {
		if err := writeMetrics(out, reg); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if !r.IsSuccess() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

func parseState(entries []string) (pipeline.Values, error) {
	state := pipeline.Values{}
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --state %q (want key=value)", e)
		}
		state = state.With(k, v)
	}
	return state, nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
