package cli

import (
	"github.com/spf13/cobra"

	"github.com/calegria/depotscan/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a source configuration file",
		Long: `Validate a source configuration file against the schema.

Checks enumerator kinds, credential identifiers, include paths and
populate strategies without touching any backend.

Example:
  depotscan validate depotscan.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitFailure, "config invalid", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Successf("%s: %d source(s) valid", path, len(f.Sources))
}
