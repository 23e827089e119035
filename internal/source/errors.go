package source

import (
	"errors"
	"fmt"
)

// ScanPhase identifies where in the pass a failure happened.
type ScanPhase string

const (
	// PhaseEnumerate covers branch and tag head listing.
	PhaseEnumerate ScanPhase = "enumerate"
	// PhaseResolve covers per-head revision resolution.
	PhaseResolve ScanPhase = "resolve"
	// PhaseEvent covers trigger payload decoding.
	PhaseEvent ScanPhase = "event"
	// PhaseCriteria covers probe-based criteria evaluation.
	PhaseCriteria ScanPhase = "criteria"
)

// ScanError is the single pass-level failure. Everything that goes
// wrong inside a reconciliation pass is wrapped into one of these at
// the top of the pass - individual head failures are never isolated or
// skipped.
type ScanError struct {
	Source string
	Phase  ScanPhase
	Head   string // head being processed, empty during enumeration
	Err    error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Head != "" {
		return fmt.Sprintf("scan %s: %s %s: %v", e.Source, e.Phase, e.Head, e.Err)
	}
	return fmt.Sprintf("scan %s: %s: %v", e.Source, e.Phase, e.Err)
}

// Unwrap exposes the original error for errors.Is / errors.As.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsScanError reports whether err is (or wraps) a pass-level failure.
func IsScanError(err error) bool {
	var se *ScanError
	return errors.As(err, &se)
}

func newScanError(source string, phase ScanPhase, head string, err error) *ScanError {
	return &ScanError{Source: source, Phase: phase, Head: head, Err: err}
}
