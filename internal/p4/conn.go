package p4

import (
	"context"
	"fmt"
)

// Stream describes one backend stream.
type Stream struct {
	Name string // stream name, e.g. "main"
	Root string // depot root, e.g. "//streams/main"
	Type string // "mainline", "development", "release", "virtual", "task"
}

// Label describes one backend label. Labels pin a revision: querying a
// path at "@<name>" restricts history to changes in the label's view.
type Label struct {
	Name string
	View []string // depot paths the label covers
}

// Connection is a single scoped session against the backend. All
// queries are metadata-only: nothing here transfers file content.
//
// Implementations must be safe to Close more than once.
type Connection interface {
	// LatestChange resolves the highest change number affecting the
	// given path query. The query is a depot path with a "/..." suffix,
	// optionally bounded by an "@<rev>" qualifier which restricts the
	// result to changes at or before that revision. Returns
	// scm.NoChange (-1) when no qualifying change exists.
	LatestChange(ctx context.Context, pathQuery string) (int64, error)

	// Dirs lists the immediate subdirectories matching a depot pattern
	// such as "//depot/*".
	Dirs(ctx context.Context, pattern string) ([]string, error)

	// Streams lists the streams rooted under the given depot prefix.
	Streams(ctx context.Context, prefix string) ([]Stream, error)

	// Labels lists the labels whose view intersects the given prefix.
	Labels(ctx context.Context, prefix string) ([]Label, error)

	// FileExists reports whether a depot file exists at the head state,
	// without fetching its content.
	FileExists(ctx context.Context, depotPath string) (bool, error)

	Close() error
}

// Provider opens scoped connections using a stored credential. The
// credential is an identifier the host resolves to stored secrets; this
// module never sees secret material.
type Provider interface {
	Connect(ctx context.Context, credential string) (Connection, error)
}

// WithConnection acquires a connection, runs fn, and releases the
// connection on every exit path, including a panic inside fn. This is
// the only sanctioned way to talk to the backend: callers never hold a
// raw handle whose release is left to discipline.
func WithConnection(ctx context.Context, provider Provider, credential string, fn func(Connection) error) error {
	conn, err := provider.Connect(ctx, credential)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}
