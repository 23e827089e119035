package store

import (
	"context"
	"fmt"

	"github.com/calegria/depotscan/internal/scm"
)

// Pass is one recorded reconciliation pass.
type Pass struct {
	ID        string
	Source    string
	StartedAt int64
	Finished  bool
}

// ObservedHead is one persisted observation.
type ObservedHead struct {
	Head   scm.Head
	Change int64
	Seq    int
}

// LatestPasses returns the most recent finished passes for a source,
// newest first. Pass tokens are UUIDv7, so lexical order is creation
// order.
func (s *Store) LatestPasses(ctx context.Context, source string, limit int) ([]Pass, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, started_at, finished
		FROM passes
		WHERE source = ? AND finished = 1
		ORDER BY id DESC
		LIMIT ?
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var p Pass
		var finished int
		if err := rows.Scan(&p.ID, &p.Source, &p.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		p.Finished = finished != 0
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	return passes, nil
}

// Observations returns a pass's observations in emission order.
func (s *Store) Observations(ctx context.Context, passID string) ([]ObservedHead, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, head, path, fixed_revision, change_num
		FROM observations
		WHERE pass_id = ?
		ORDER BY seq ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var heads []ObservedHead
	for rows.Next() {
		var o ObservedHead
		if err := rows.Scan(&o.Seq, &o.Head.Name, &o.Head.Path, &o.Head.FixedRevision, &o.Change); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		heads = append(heads, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return heads, nil
}
