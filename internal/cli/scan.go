package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calegria/depotscan/internal/config"
	"github.com/calegria/depotscan/internal/p4"
	"github.com/calegria/depotscan/internal/source"
	"github.com/calegria/depotscan/internal/store"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	Config   string
	Database string
	Snapshot string
	Source   string // scan only this source, empty = all
	Criteria string // file that must exist at a head's path
	Event    string // inline trigger payload (JSON)

	// Tokens allows overriding the pass token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens source.PassTokenGenerator
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	return newScanCommand(&ScanOptions{RootOptions: rootOpts})
}

// newScanCommand builds the command from pre-populated options, which
// lets tests inject a deterministic token generator.
func newScanCommand(opts *ScanOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one reconciliation pass per configured source",
		Long: `Run one reconciliation pass per configured source.

Each pass enumerates the source's branch and tag heads, resolves every
head's latest change, persists the observed set, and reports what
changed since the previous pass of the same source.

The backend is a snapshot file describing depot state; hosts embedding
depotscan as a library supply their own connection provider instead.

Example:
  depotscan scan --config depotscan.yaml --backend depot.yaml --db scans.db
  depotscan scan --config depotscan.yaml --backend depot.yaml --db scans.db --criteria Jenkinsfile`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to source configuration file (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Snapshot, "backend", "", "path to backend snapshot file (required)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "scan only the named source")
	cmd.Flags().StringVar(&opts.Criteria, "criteria", "", "only observe heads whose path contains this file")
	cmd.Flags().StringVar(&opts.Event, "event", "", "trigger event payload (JSON)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("backend")

	return cmd
}

// scanReport is the per-source scan output.
type scanReport struct {
	Source  string       `json:"source"`
	Pass    string       `json:"pass"`
	Heads   int          `json:"heads"`
	Added   []string     `json:"added,omitempty"`
	Updated []updateLine `json:"updated,omitempty"`
	Removed []string     `json:"removed,omitempty"`
}

type updateLine struct {
	Head string `json:"head"`
	From int64  `json:"from"`
	To   int64  `json:"to"`
}

// String renders the text form of a report.
func (r scanReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "source %s: %d heads observed (pass %s)", r.Source, r.Heads, r.Pass)
	for _, a := range r.Added {
		fmt.Fprintf(&b, "\n  + %s", a)
	}
	for _, u := range r.Updated {
		fmt.Fprintf(&b, "\n  ~ %s@%d (was %d)", u.Head, u.To, u.From)
	}
	for _, d := range r.Removed {
		fmt.Fprintf(&b, "\n  - %s", d)
	}
	return b.String()
}

func runScan(ctx context.Context, opts *ScanOptions, out io.Writer) error {
	configureLogging(opts.Verbose)
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	provider, err := p4.LoadSnapshot(opts.Snapshot)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load backend snapshot", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	var criteria source.Criteria
	if opts.Criteria != "" {
		criteria = source.FileExistsCriteria(opts.Criteria)
	}

	var event *source.TriggerEvent
	if opts.Event != "" {
		event = &source.TriggerEvent{Payload: json.RawMessage(opts.Event)}
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = source.UUIDv7Generator{}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: out}
	matched := false
	for _, def := range cfg.Sources {
		if opts.Source != "" && def.Name != opts.Source {
			continue
		}
		matched = true

		report, err := scanOne(ctx, def, provider, st, criteria, event, tokens)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("scan of %s failed", def.Name), err)
		}
		if err := formatter.Success(report); err != nil {
			return err
		}
	}

	if !matched {
		return NewExitError(ExitCommandError, fmt.Sprintf("no source named %q in config", opts.Source))
	}
	return nil
}

// scanOne runs and persists one source's reconciliation pass.
func scanOne(
	ctx context.Context,
	def config.Source,
	provider p4.Provider,
	st *store.Store,
	criteria source.Criteria,
	event *source.TriggerEvent,
	tokens source.PassTokenGenerator,
) (*scanReport, error) {
	src, err := def.Materialize(provider)
	if err != nil {
		return nil, err
	}

	pass := tokens.Generate()
	log := slog.Default().With("pass", pass)

	// Previous finished pass, for the what-changed report.
	prev, err := st.LatestPasses(ctx, def.Name, 1)
	if err != nil {
		return nil, err
	}

	var rec source.Recorder
	if err := src.Retrieve(ctx, criteria, &rec, event, log); err != nil {
		return nil, err
	}

	if err := st.BeginPass(ctx, pass, def.Name); err != nil {
		return nil, err
	}
	for i, obs := range rec.Observations {
		if err := st.RecordObservation(ctx, pass, i, obs.Head, obs.Revision.Change()); err != nil {
			return nil, err
		}
	}
	if err := st.FinishPass(ctx, pass); err != nil {
		return nil, err
	}

	report := &scanReport{Source: def.Name, Pass: pass, Heads: len(rec.Observations)}
	var older []store.ObservedHead
	if len(prev) > 0 {
		older, err = st.Observations(ctx, prev[0].ID)
		if err != nil {
			return nil, err
		}
	}
	newer, err := st.Observations(ctx, pass)
	if err != nil {
		return nil, err
	}

	fillReport(report, store.Diff(older, newer))
	return report, nil
}

func fillReport(report *scanReport, d store.DiffResult) {
	for _, a := range d.Added {
		report.Added = append(report.Added, fmt.Sprintf("%s@%d", a.Head.Name, a.Change))
	}
	for _, u := range d.Updated {
		report.Updated = append(report.Updated, updateLine{Head: u.Current.Head.Name, From: u.PrevChange, To: u.Current.Change})
	}
	for _, r := range d.Removed {
		report.Removed = append(report.Removed, fmt.Sprintf("%s@%d", r.Head.Name, r.Change))
	}
}

// configureLogging installs the process logger. Verbose enables debug
// level; logs always go to stderr so stdout stays machine-readable.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
