package p4

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Fake is an in-memory backend for tests. It implements Provider and
// hands out connections that answer queries from seeded state.
//
// Seed it with AddChange / AddFile / AddDir / AddStream / AddLabel,
// then pass it wherever a Provider is expected. Connects and Closes
// count acquisitions and releases so tests can assert the scoped
// connection discipline (every connect matched by a close).
type Fake struct {
	mu       sync.Mutex
	changes  map[string][]int64 // depot dir -> change numbers, unsorted
	files    map[string]bool
	dirs     []string
	streams  []Stream
	labels   []Label
	labelRev map[string]int64 // label name -> pinned change

	ConnectErr error // returned by Connect when set
	QueryErr   error // returned by every query when set

	connects int
	closes   int
}

// NewFake creates an empty fake backend.
func NewFake() *Fake {
	return &Fake{
		changes:  make(map[string][]int64),
		files:    make(map[string]bool),
		labelRev: make(map[string]int64),
	}
}

// AddChange records a change number against a depot directory.
func (f *Fake) AddChange(dir string, change int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir = strings.TrimSuffix(dir, "/")
	f.changes[dir] = append(f.changes[dir], change)
}

// AddFile marks a depot file as existing at the head state.
func (f *Fake) AddFile(depotPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[depotPath] = true
}

// AddDir registers a depot directory for Dirs queries.
func (f *Fake) AddDir(dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs = append(f.dirs, strings.TrimSuffix(dir, "/"))
}

// AddStream registers a stream.
func (f *Fake) AddStream(s Stream) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams = append(f.streams, s)
}

// AddLabel registers a label pinned at the given change.
func (f *Fake) AddLabel(l Label, change int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels = append(f.labels, l)
	f.labelRev[l.Name] = change
}

// Connects returns how many connections have been acquired.
func (f *Fake) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

// Closes returns how many connections have been released.
func (f *Fake) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// Connect implements Provider.
func (f *Fake) Connect(ctx context.Context, credential string) (Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConnectErr != nil {
		return nil, f.ConnectErr
	}
	f.connects++
	return &fakeConn{fake: f}, nil
}

type fakeConn struct {
	fake   *Fake
	closed bool
}

func (c *fakeConn) Close() error {
	c.fake.mu.Lock()
	defer c.fake.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.fake.closes++
	}
	return nil
}

func (c *fakeConn) LatestChange(ctx context.Context, pathQuery string) (int64, error) {
	c.fake.mu.Lock()
	defer c.fake.mu.Unlock()
	if c.fake.QueryErr != nil {
		return -1, c.fake.QueryErr
	}

	base, bound, err := c.fake.splitQuery(pathQuery)
	if err != nil {
		return -1, err
	}

	best := int64(-1)
	for _, ch := range c.fake.changes[base] {
		if ch > best && ch <= bound {
			best = ch
		}
	}
	return best, nil
}

// splitQuery parses "//depot/main/..." or "//depot/main/...@100" into
// the base directory and an upper change bound. A non-numeric bound is
// resolved as a label name. Callers hold the mutex.
func (f *Fake) splitQuery(pathQuery string) (string, int64, error) {
	base := pathQuery
	bound := int64(1<<62 - 1)

	if at := strings.LastIndex(pathQuery, "@"); at >= 0 {
		base = pathQuery[:at]
		rev := pathQuery[at+1:]
		n, err := strconv.ParseInt(rev, 10, 64)
		if err != nil {
			pinned, ok := f.labelRev[rev]
			if !ok {
				return "", 0, fmt.Errorf("unknown revision %q", rev)
			}
			n = pinned
		}
		bound = n
	}

	base = strings.TrimSuffix(base, "/...")
	base = strings.TrimSuffix(base, "/")
	return base, bound, nil
}

func (c *fakeConn) Dirs(ctx context.Context, pattern string) ([]string, error) {
	c.fake.mu.Lock()
	defer c.fake.mu.Unlock()
	if c.fake.QueryErr != nil {
		return nil, c.fake.QueryErr
	}

	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for _, d := range c.fake.dirs {
		rest, ok := strings.CutPrefix(d, prefix)
		if ok && rest != "" && !strings.Contains(rest, "/") {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (c *fakeConn) Streams(ctx context.Context, prefix string) ([]Stream, error) {
	c.fake.mu.Lock()
	defer c.fake.mu.Unlock()
	if c.fake.QueryErr != nil {
		return nil, c.fake.QueryErr
	}

	var out []Stream
	for _, s := range c.fake.streams {
		if strings.HasPrefix(s.Root, prefix) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *fakeConn) Labels(ctx context.Context, prefix string) ([]Label, error) {
	c.fake.mu.Lock()
	defer c.fake.mu.Unlock()
	if c.fake.QueryErr != nil {
		return nil, c.fake.QueryErr
	}

	var out []Label
	for _, l := range c.fake.labels {
		for _, v := range l.View {
			if strings.HasPrefix(v, prefix) {
				out = append(out, l)
				break
			}
		}
	}
	return out, nil
}

func (c *fakeConn) FileExists(ctx context.Context, depotPath string) (bool, error) {
	c.fake.mu.Lock()
	defer c.fake.mu.Unlock()
	if c.fake.QueryErr != nil {
		return false, c.fake.QueryErr
	}
	return c.fake.files[depotPath], nil
}
