package p4

import (
	"context"
	"strings"
)

// Probe answers file-existence questions against the backend at one
// head's path, without a checkout. A probe is scoped to exactly one
// head's criteria check and borrows the connection it was created
// with; it must not be retained after that connection is released.
type Probe struct {
	conn Connection
	root string // head depot path, no trailing slash
}

// NewProbe creates a probe rooted at the given head path.
func NewProbe(conn Connection, headPath string) *Probe {
	return &Probe{
		conn: conn,
		root: strings.TrimSuffix(headPath, "/"),
	}
}

// Root returns the depot path the probe is rooted at.
func (p *Probe) Root() string {
	return p.root
}

// Exists reports whether the file at the given path, relative to the
// probe's root, exists at the head state.
func (p *Probe) Exists(ctx context.Context, rel string) (bool, error) {
	// Depot paths start with "//"; path.Join would collapse that, so
	// the join is spelled out.
	return p.conn.FileExists(ctx, p.root+"/"+strings.TrimPrefix(rel, "/"))
}
