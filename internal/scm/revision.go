package scm

import "fmt"

// NoChange is the sentinel change number for "no qualifying change
// found". A revision at NoChange is still a valid revision; callers
// that need to suppress it do so explicitly.
const NoChange int64 = -1

// ChangeRef is a backend-assigned change number. Change numbers are
// backend-global and totally ordered, so two ChangeRefs for the same
// path are always comparable.
type ChangeRef struct {
	Change int64
}

// NewChangeRef wraps a raw change number.
func NewChangeRef(change int64) ChangeRef {
	return ChangeRef{Change: change}
}

// Compare orders two change references. Returns -1, 0 or +1.
func (c ChangeRef) Compare(other ChangeRef) int {
	switch {
	case c.Change < other.Change:
		return -1
	case c.Change > other.Change:
		return 1
	default:
		return 0
	}
}

// String implements fmt.Stringer.
func (c ChangeRef) String() string {
	return fmt.Sprintf("@%d", c.Change)
}

// Revision marks a specific changeset state for a head.
//
// The embedded head is a back-reference, not ownership: a head may have
// many revisions observed over time, but a revision always belongs to
// exactly one head. Revisions are immutable; the engine replaces rather
// than updates them.
type Revision struct {
	Head Head
	Ref  ChangeRef
}

// NewRevision creates a revision for head at the given change ref.
func NewRevision(head Head, ref ChangeRef) Revision {
	return Revision{Head: head, Ref: ref}
}

// Change returns the revision's change number.
func (r Revision) Change() int64 {
	return r.Ref.Change
}

// Compare orders two revisions by change number only. Head identity is
// ignored - comparison is meaningful for revisions of the same path.
func (r Revision) Compare(other Revision) int {
	return r.Ref.Compare(other.Ref)
}

// String implements fmt.Stringer for log output.
func (r Revision) String() string {
	return fmt.Sprintf("%s%s", r.Head.Name, r.Ref)
}
