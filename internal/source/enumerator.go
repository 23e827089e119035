package source

import (
	"context"
	"log/slog"
	"strings"

	"github.com/calegria/depotscan/internal/p4"
	"github.com/calegria/depotscan/internal/scm"
)

// Enumerator produces the currently visible branch and tag heads for
// one backend variant. Both listings must be finite, freshly computed
// on every call (no caching), and safe to call repeatedly.
//
// The engine concatenates branches then tags and performs no
// de-duplication: duplicate names across the two lists are a
// configuration error the host surfaces later.
type Enumerator interface {
	BranchHeads(ctx context.Context, log *slog.Logger) ([]scm.Head, error)
	TagHeads(ctx context.Context, log *slog.Logger) ([]scm.Head, error)
}

// DirEnumerator discovers branch heads as the immediate subdirectories
// of each include path and tag heads from backend labels whose view
// touches an include path.
type DirEnumerator struct {
	Provider   p4.Provider
	Credential string
	Includes   []string
}

// BranchHeads lists one head per subdirectory, in backend enumeration
// order per include path.
func (e *DirEnumerator) BranchHeads(ctx context.Context, log *slog.Logger) ([]scm.Head, error) {
	var heads []scm.Head
	err := p4.WithConnection(ctx, e.Provider, e.Credential, func(conn p4.Connection) error {
		for _, include := range e.Includes {
			pattern := strings.TrimSuffix(include, "/") + "/*"
			dirs, err := conn.Dirs(ctx, pattern)
			if err != nil {
				return err
			}
			for _, dir := range dirs {
				name := dir[strings.LastIndex(dir, "/")+1:]
				heads = append(heads, scm.NewHead(name, dir))
				log.Debug("branch head", "name", name, "path", dir)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return heads, nil
}

// TagHeads lists one head per label, pinned at the label's revision.
func (e *DirEnumerator) TagHeads(ctx context.Context, log *slog.Logger) ([]scm.Head, error) {
	return labelHeads(ctx, e.Provider, e.Credential, e.Includes, log)
}

// StreamEnumerator discovers branch heads from backend streams under
// the include depots. Mainline, development and release streams become
// heads; virtual and task streams are skipped (they have no
// independently buildable file state).
type StreamEnumerator struct {
	Provider   p4.Provider
	Credential string
	Includes   []string
}

// BranchHeads lists one head per buildable stream.
func (e *StreamEnumerator) BranchHeads(ctx context.Context, log *slog.Logger) ([]scm.Head, error) {
	var heads []scm.Head
	err := p4.WithConnection(ctx, e.Provider, e.Credential, func(conn p4.Connection) error {
		for _, include := range e.Includes {
			streams, err := conn.Streams(ctx, include)
			if err != nil {
				return err
			}
			for _, s := range streams {
				switch s.Type {
				case "mainline", "development", "release":
					heads = append(heads, scm.NewHead(s.Name, s.Root))
					log.Debug("stream head", "name", s.Name, "root", s.Root, "type", s.Type)
				default:
					log.Debug("skipping stream", "name", s.Name, "type", s.Type)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return heads, nil
}

// TagHeads lists one head per label, pinned at the label's revision.
func (e *StreamEnumerator) TagHeads(ctx context.Context, log *slog.Logger) ([]scm.Head, error) {
	return labelHeads(ctx, e.Provider, e.Credential, e.Includes, log)
}

// labelHeads is the shared tag enumeration: one tag head per label,
// rooted at the first view path under an include, with the label name
// as the fixed revision bound.
func labelHeads(ctx context.Context, provider p4.Provider, credential string, includes []string, log *slog.Logger) ([]scm.Head, error) {
	var heads []scm.Head
	err := p4.WithConnection(ctx, provider, credential, func(conn p4.Connection) error {
		seen := make(map[string]bool)
		for _, include := range includes {
			labels, err := conn.Labels(ctx, include)
			if err != nil {
				return err
			}
			for _, label := range labels {
				if seen[label.Name] {
					continue
				}
				path := labelRoot(label, include)
				if path == "" {
					continue
				}
				seen[label.Name] = true
				heads = append(heads, scm.NewTagHead(label.Name, path, label.Name))
				log.Debug("tag head", "name", label.Name, "path", path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return heads, nil
}

// labelRoot picks the first view path of the label under the include
// prefix.
func labelRoot(label p4.Label, include string) string {
	for _, v := range label.View {
		if strings.HasPrefix(v, include) {
			return strings.TrimSuffix(v, "/...")
		}
	}
	return ""
}
