package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldwatch/internal/engine"
	"github.com/roach88/fieldwatch/internal/sim"
	"github.com/roach88/fieldwatch/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Seed     int64
	SeedSet  bool

	// TokenGenerator allows overriding the run token generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.RunTokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run a simulation scenario",
		Long: `Run a simulation scenario to completion and record the sampled
monitor time series.

The scenario file may be YAML or CUE. Results are written to a SQLite
database when --db is given; without it the run only prints its summary.

Example:
  fieldwatch run --db ./results.db scenarios/groups.yaml
  fieldwatch run --seed 42 scenarios/groups.cue --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SeedSet = cmd.Flags().Changed("seed")
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite results database (optional)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "override the scenario seed")

	return cmd
}

func runScenario(opts *RunOptions, scenarioPath string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	scenario, err := LoadScenario(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if opts.SeedSet {
		scenario.Seed = opts.Seed
	}

	var runnerOpts []sim.RunnerOption
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		runnerOpts = append(runnerOpts, sim.WithStore(st))
	}
	if opts.TokenGenerator != nil {
		runnerOpts = append(runnerOpts, sim.WithTokenGenerator(opts.TokenGenerator))
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	runner := sim.NewRunner(scenario, runnerOpts...)
	summary, err := runner.Run(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "run failed", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"run":        summary.RunToken,
			"scenario":   summary.Scenario,
			"seed":       summary.Seed,
			"devices":    summary.Devices,
			"duration":   summary.Duration,
			"samples":    summary.Samples,
			"final_mean": summary.FinalMean,
			"alerted":    summary.Alerted,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s complete\n", summary.RunToken)
	fmt.Fprintf(out, "  scenario:   %s (seed %d)\n", summary.Scenario, summary.Seed)
	fmt.Fprintf(out, "  devices:    %d\n", summary.Devices)
	fmt.Fprintf(out, "  duration:   %.1fs (%d samples)\n", summary.Duration, summary.Samples)
	fmt.Fprintf(out, "  final mean: %.3f (%d alerted)\n", summary.FinalMean, summary.Alerted)
	return nil
}
