package source

import (
	"context"
	"log/slog"

	"github.com/calegria/depotscan/internal/p4"
	"github.com/calegria/depotscan/internal/scm"
)

// Observer is the sink for observed (head, revision) pairs. The host
// aggregates observations into its persisted set of known heads.
// Emission is append-only: each observation is independently valid and
// nothing is retracted on cancellation.
type Observer interface {
	Observe(head scm.Head, revision scm.Revision)
}

// Observation is one emitted (head, revision) pair.
type Observation struct {
	Head     scm.Head
	Revision scm.Revision
}

// Recorder is an Observer that collects observations in emission
// order. Used by the CLI (which persists the collected set after the
// pass) and by tests.
type Recorder struct {
	Observations []Observation
}

// Observe implements Observer.
func (r *Recorder) Observe(head scm.Head, revision scm.Revision) {
	r.Observations = append(r.Observations, Observation{Head: head, Revision: revision})
}

// Criteria is a caller-owned inclusion predicate, evaluated against a
// head through a scoped probe. The check is content/file-existence
// based, never revision based. A nil Criteria means every head matches
// and no probe connection is opened.
type Criteria interface {
	IsHead(ctx context.Context, probe *p4.Probe, log *slog.Logger) (bool, error)
}

// CriteriaFunc adapts a function to the Criteria interface.
type CriteriaFunc func(ctx context.Context, probe *p4.Probe, log *slog.Logger) (bool, error)

// IsHead implements Criteria.
func (f CriteriaFunc) IsHead(ctx context.Context, probe *p4.Probe, log *slog.Logger) (bool, error) {
	return f(ctx, probe, log)
}

// FileExistsCriteria matches heads whose path contains the named file
// (for example a pipeline script). This is the common criterion the
// host supplies for multibranch-style discovery.
func FileExistsCriteria(file string) Criteria {
	return CriteriaFunc(func(ctx context.Context, probe *p4.Probe, log *slog.Logger) (bool, error) {
		ok, err := probe.Exists(ctx, file)
		if err != nil {
			return false, err
		}
		if !ok {
			log.Debug("criteria file not found", "root", probe.Root(), "file", file)
		}
		return ok, nil
	})
}
