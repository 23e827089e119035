package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calegria/depotscan/internal/store"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Database string
	Source   string
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the two most recent scans of a source",
		Long: `Compare the two most recent finished scans of a source and report
heads that were added, updated or removed between them.

Example:
  depotscan diff --db scans.db --source main-line`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "source name (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func runDiff(ctx context.Context, opts *DiffOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	passes, err := st.LatestPasses(ctx, opts.Source, 2)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list passes", err)
	}
	if len(passes) < 2 {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("source %q has %d finished scan(s), need two to diff", opts.Source, len(passes)))
	}

	newer, err := st.Observations(ctx, passes[0].ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read observations", err)
	}
	older, err := st.Observations(ctx, passes[1].ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read observations", err)
	}

	report := &scanReport{Source: opts.Source, Pass: passes[0].ID, Heads: len(newer)}
	fillReport(report, store.Diff(older, newer))

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(report)
}
