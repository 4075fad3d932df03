// Command poolbench runs worker pool scenarios and reports whether each one
// behaved as predicted.
//
// Without a config file it runs the two reference scenarios: 100 sleeping
// tasks on 4 workers, and 10+1 tasks on a single worker with the last one
// submitted after the worker has gone idle.
//
// Usage:
//
//	poolbench [--config scenarios.yaml] [--workers N] [--log-level debug]
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type cliOptions struct {
	configPath string
	workers    int
	tasks      int
	logLevel   string
	ciMode     bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts cliOptions

	cmd := &cobra.Command{
		Use:          "poolbench",
		Short:        "Run worker pool scenarios and check their outcome",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML or JSON scenario file")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "override the worker count of every scenario")
	flags.IntVarP(&opts.tasks, "tasks", "n", 0, "override the task count of every scenario")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.BoolVar(&opts.ciMode, "ci", false, "plain output without a progress bar")

	return cmd
}

func run(stdout, stderr io.Writer, opts cliOptions) error {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	scenarios := defaultScenarios()
	if opts.configPath != "" {
		if scenarios, err = LoadScenarios(opts.configPath); err != nil {
			return err
		}
	}
	applyOverrides(scenarios, opts)

	total := 0
	for _, sc := range scenarios {
		total += sc.total()
	}

	var bar *progressbar.ProgressBar
	if !opts.ciMode {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("Running scenarios"),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]RunResult, 0, len(scenarios))
	for i, sc := range scenarios {
		if bar != nil {
			bar.Describe(fmt.Sprintf("Running: %s", sc.Name))
		} else {
			fmt.Fprintf(stdout, "[%d/%d] Running scenario: %s\n", i+1, len(scenarios), sc.Name)
		}
		results = append(results, runScenario(sc, logger, bar))
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if failed := renderResults(stdout, results); failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", failed)
	}
	return nil
}

func applyOverrides(scenarios []Scenario, opts cliOptions) {
	for i := range scenarios {
		if opts.workers > 0 {
			scenarios[i].Workers = opts.workers
		}
		if opts.tasks > 0 {
			scenarios[i].Tasks = opts.tasks
		}
	}
}

// newLogger builds a development logger for debug and a production logger
// otherwise.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
