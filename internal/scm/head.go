package scm

import "fmt"

// Head identifies a logical line of development at a depot path.
//
// Name is unique within a source instance and is the ONLY field that
// carries identity: Equal and Hash look at nothing else. Path locates
// the head in the depot. FixedRevision, when non-empty, pins enumeration
// to a historical point (labels and tags carry one; plain branches do
// not).
//
// Heads are created fresh on every enumeration and never mutated.
type Head struct {
	Name          string
	Path          string
	FixedRevision string
}

// NewHead creates a branch head with no fixed revision.
func NewHead(name, path string) Head {
	return Head{Name: name, Path: path}
}

// NewTagHead creates a tag head pinned at the given revision.
func NewTagHead(name, path, revision string) Head {
	return Head{Name: name, Path: path, FixedRevision: revision}
}

// Equal reports whether two heads are the same head.
// Identity is by name only - path and fixed revision are attributes,
// not identity.
func (h Head) Equal(other Head) bool {
	return h.Name == other.Name
}

// Hash returns the key under which this head is tracked across scans.
// Heads that are Equal always hash identically.
func (h Head) Hash() string {
	return h.Name
}

// String implements fmt.Stringer for log output.
func (h Head) String() string {
	if h.FixedRevision != "" {
		return fmt.Sprintf("%s (%s@%s)", h.Name, h.Path, h.FixedRevision)
	}
	return fmt.Sprintf("%s (%s)", h.Name, h.Path)
}
