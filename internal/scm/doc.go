// Package scm defines the value types shared by every depotscan
// component: heads, revisions and change references.
//
// A Head is the identity of a logical line of development (a branch,
// stream or label) at a depot path. Two heads with the same name are the
// same head across scans - the name, and only the name, carries
// identity. This is what lets the host detect changes between scans
// without any persistent object identity.
//
// A Revision is a point-in-time marker for a head: the head plus a
// backend change number. Change numbers are backend-global, totally
// ordered integers; -1 is the sentinel for "no qualifying change".
//
// All types in this package are immutable after construction. The
// reconciliation engine freely substitutes event-derived revisions for
// freshly resolved ones, so nothing here may be mutated once it has
// been handed to an observer.
package scm
