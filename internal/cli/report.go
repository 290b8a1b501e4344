package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldwatch/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	RunToken string
	List     bool
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report the sampled time series of a recorded run",
		Long: `Read a recorded run from the results database and print its
sampled time series. Without --run the most recent run is reported; with
--list all recorded runs are listed instead.

Example:
  fieldwatch report --db ./results.db
  fieldwatch report --db ./results.db --run 0190c8a1-...
  fieldwatch report --db ./results.db --list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportRun(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite results database (required)")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token to report (default: latest)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list recorded runs instead of reporting one")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func reportRun(opts *ReportOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.List {
		runs, err := st.ReadRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read runs", err)
		}
		if opts.Format == "json" {
			return formatter.Success(runs)
		}
		out := cmd.OutOrStdout()
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %s  seed=%d devices=%d  %s\n",
				r.Token, r.Scenario, r.Seed, r.Devices, r.StartedAt)
		}
		return nil
	}

	var run store.Run
	if opts.RunToken != "" {
		runs, err := st.ReadRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read runs", err)
		}
		found := false
		for _, r := range runs {
			if r.Token == opts.RunToken {
				run, found = r, true
				break
			}
		}
		if !found {
			return NewExitError(ExitCommandError, fmt.Sprintf("run %q not found", opts.RunToken))
		}
	} else {
		run, err = st.LatestRun(ctx)
		if errors.Is(err, store.ErrNoRuns) {
			return NewExitError(ExitCommandError, "no runs recorded in database")
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read latest run", err)
		}
	}

	samples, err := st.ReadSamples(ctx, run.Token)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read samples", err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"run":     run,
			"samples": samples,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", run.Token)
	fmt.Fprintf(out, "  scenario: %s (seed %d, %d devices, started %s)\n",
		run.Scenario, run.Seed, run.Devices, run.StartedAt)
	fmt.Fprintf(out, "  %8s  %8s  %8s  %8s\n", "time", "mean", "devices", "alerted")
	for _, s := range samples {
		fmt.Fprintf(out, "  %8.1f  %8.3f  %8d  %8d\n",
			float64(s.AtMillis)/1000, float64(s.MeanMillis)/1000, s.Devices, s.Alerted)
	}
	return nil
}
