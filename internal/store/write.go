package store

import (
	"context"
	"fmt"
	"time"

	"github.com/calegria/depotscan/internal/scm"
)

// BeginPass records the start of a reconciliation pass. The id is the
// pass token from the engine; duplicate begins are rejected loudly
// (pass tokens are unique by construction, a collision is a bug).
func (s *Store) BeginPass(ctx context.Context, id, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO passes (id, source, started_at, finished)
		VALUES (?, ?, ?, 0)
	`, id, source, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("begin pass %s: %w", id, err)
	}
	return nil
}

// FinishPass marks a pass complete. Only finished passes participate
// in diffs - a crashed scan never masquerades as an empty head set.
func (s *Store) FinishPass(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE passes SET finished = 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("finish pass %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish pass %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish pass %s: unknown pass", id)
	}
	return nil
}

// RecordObservation appends one observed (head, revision) pair to a
// pass. Seq is the emission order within the pass.
func (s *Store) RecordObservation(ctx context.Context, passID string, seq int, head scm.Head, change int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO observations (pass_id, seq, head, path, fixed_revision, change_num)
		VALUES (?, ?, ?, ?, ?, ?)
	`, passID, seq, head.Name, head.Path, head.FixedRevision, change)
	if err != nil {
		return fmt.Errorf("record observation %s/%d: %w", passID, seq, err)
	}
	return nil
}
