package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <scenario-file>...",
		Short: "Validate scenario files without running them",
		Long: `Validate one or more scenario files (YAML or CUE). Each file is
parsed, defaulted and checked exactly as the run command would; nothing is
executed.

Example:
  fieldwatch validate scenarios/*.yaml
  fieldwatch validate scenarios/groups.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateScenarios(opts, args, cmd)
		},
	}

	return cmd
}

type validationResult struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
	Name    string `json:"name,omitempty"`
	Devices int    `json:"devices,omitempty"`
}

func validateScenarios(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results := make([]validationResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			failed++
			results = append(results, validationResult{
				File:  path,
				Valid: false,
				Error: err.Error(),
			})
			continue
		}
		results = append(results, validationResult{
			File:    path,
			Valid:   true,
			Name:    sc.Name,
			Devices: sc.DeviceCount(),
		})
	}

	if opts.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(out, "ok    %s (%s, %d devices)\n", r.File, r.Name, r.Devices)
			} else {
				fmt.Fprintf(out, "FAIL  %s: %s\n", r.File, r.Error)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario files invalid", failed, len(paths)))
	}
	return nil
}
