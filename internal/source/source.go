package source

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/calegria/depotscan/internal/p4"
	"github.com/calegria/depotscan/internal/scm"
	"github.com/calegria/depotscan/internal/viewmap"
	"github.com/calegria/depotscan/internal/workspace"
)

// Category is a generic head category the host may gate on.
type Category string

const (
	CategoryBranch        Category = "branch"
	CategoryTag           Category = "tag"
	CategoryChangeRequest Category = "change-request"
)

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// Source is one configured discovery source: a credential, an
// enumerator variant, and the configuration consumed by the builder.
//
// A Source holds no pass state. Retrieve may be called repeatedly and
// concurrently for different sources; within one call, heads are
// processed strictly in order.
type Source struct {
	name       string
	credential string
	provider   p4.Provider
	enumerator Enumerator

	includes   string // newline-delimited include paths, raw
	charset    string
	format     string // client naming template
	browserURL string
	populate   workspace.Populate
	traits     []workspace.Trait
}

// Option configures a Source at construction time.
type Option func(*Source)

// WithIncludes sets the newline-delimited include path list.
func WithIncludes(includes string) Option {
	return func(s *Source) { s.includes = includes }
}

// WithCharset sets the character-encoding name recorded on derived
// workspaces.
func WithCharset(charset string) Option {
	return func(s *Source) { s.charset = charset }
}

// WithFormat sets the client naming template.
func WithFormat(format string) Option {
	return func(s *Source) { s.format = format }
}

// WithBrowserURL sets the repository browser base URL recorded on
// built configurations.
func WithBrowserURL(url string) Option {
	return func(s *Source) { s.browserURL = url }
}

// WithPopulate sets the population strategy.
func WithPopulate(p workspace.Populate) Option {
	return func(s *Source) { s.populate = p }
}

// WithTraits sets the ordered trait list. The slice is copied so a
// caller-held slice cannot mutate the source after construction -
// concurrent passes for different sources must never share mutable
// trait state.
func WithTraits(traits []workspace.Trait) Option {
	return func(s *Source) {
		if traits == nil {
			s.traits = nil
			return
		}
		s.traits = make([]workspace.Trait, len(traits))
		copy(s.traits, traits)
	}
}

// New creates a Source. The provider opens scoped backend connections
// with the given credential; the enumerator selects the backend
// variant (directories vs. streams).
func New(name, credential string, provider p4.Provider, enumerator Enumerator, opts ...Option) *Source {
	s := &Source{
		name:       name,
		credential: credential,
		provider:   provider,
		enumerator: enumerator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source's name.
func (s *Source) Name() string { return s.name }

// Credential returns the credential identifier.
func (s *Source) Credential() string { return s.credential }

// Format returns the client naming template.
func (s *Source) Format() string { return s.format }

// Charset returns the configured character-encoding name.
func (s *Source) Charset() string { return s.charset }

// Includes returns the raw newline-delimited include list.
func (s *Source) Includes() string { return s.includes }

// IncludePaths splits the include list on line breaks. No trimming is
// applied - paths are taken exactly as configured.
func (s *Source) IncludePaths() []string {
	return SplitIncludes(s.includes)
}

// SplitIncludes splits a newline-delimited include list into paths. An
// empty value yields an empty list, never nil.
func SplitIncludes(value string) []string {
	if value == "" {
		return []string{}
	}
	return lineBreaks.Split(value, -1)
}

// Traits returns the ordered trait list. The returned slice is a copy.
func (s *Source) Traits() []workspace.Trait {
	out := make([]workspace.Trait, len(s.traits))
	copy(out, s.traits)
	return out
}

// CategoryEnabled reports whether a head category is enabled for this
// source. Every category is enabled unconditionally, including ones
// this source never produces - the host filters on what is actually
// observed, not on the gate.
func (s *Source) CategoryEnabled(c Category) bool {
	switch c {
	case CategoryChangeRequest:
		return true
	case CategoryTag:
		return true
	default:
		return true
	}
}

// Retrieve runs one reconciliation pass: enumerate branch and tag
// heads, resolve each head's revision, apply the trigger event's
// override where its embedded head name matches, filter through the
// caller's criteria, and emit (head, revision) pairs to the observer.
//
// A nil criteria matches every head unconditionally. A nil event means
// every revision is freshly resolved. Cancellation is cooperative:
// the context is checked after each head, a pending cancellation stops
// the pass cleanly before the next head's resolution, and everything
// already emitted remains valid.
//
// Any other failure aborts the whole pass and is reported as a single
// ScanError, so the host never acts on a silently incomplete head set.
func (s *Source) Retrieve(ctx context.Context, criteria Criteria, observer Observer, event *TriggerEvent, log *slog.Logger) error {
	log = log.With("source", s.name)

	// Decode the event payload once, outside the loop. A malformed
	// payload fails the pass before any backend traffic.
	var override *scm.Revision
	if event != nil {
		rev, err := event.Revision()
		if err != nil {
			return newScanError(s.name, PhaseEvent, "", err)
		}
		override = &rev
	}

	branches, err := s.enumerator.BranchHeads(ctx, log)
	if err != nil {
		return newScanError(s.name, PhaseEnumerate, "", err)
	}
	tags, err := s.enumerator.TagHeads(ctx, log)
	if err != nil {
		return newScanError(s.name, PhaseEnumerate, "", err)
	}
	heads := append(branches, tags...)
	log.Info("heads enumerated", "branches", len(branches), "tags", len(tags))

	for _, head := range heads {
		log.Debug("processing head", "head", head.String())

		revision, err := s.resolveRevision(ctx, head)
		if err != nil {
			return newScanError(s.name, PhaseResolve, head.Name, err)
		}

		// Trigger events carry an authoritative revision for exactly
		// one head; everything else in the pass stays freshly polled.
		if override != nil && override.Head.Equal(head) {
			revision = override
			log.Debug("revision from trigger payload", "head", head.Name, "change", revision.Change())
		}

		if criteria == nil {
			// No criteria: every head matches, no probe is opened.
			observer.Observe(head, *revision)
			log.Info("head observed", "head", head.Name, "change", revision.Change())
		} else {
			err := p4.WithConnection(ctx, s.provider, s.credential, func(conn p4.Connection) error {
				probe := p4.NewProbe(conn, head.Path)
				ok, err := criteria.IsHead(ctx, probe, log)
				if err != nil {
					return err
				}
				if ok && revision != nil {
					// Emit the revision's head, not the enumerated
					// one: an override may have altered
					// identity-adjacent fields.
					observer.Observe(revision.Head, *revision)
					log.Info("head observed", "head", revision.Head.Name, "change", revision.Change())
				}
				return nil
			})
			if err != nil {
				return newScanError(s.name, PhaseCriteria, head.Name, err)
			}
		}

		// Cooperative cancellation, checked between heads, never
		// mid-backend-call.
		if ctx.Err() != nil {
			log.Info("pass cancelled", "head", head.Name)
			return nil
		}
	}

	log.Info("pass complete", "heads", len(heads))
	return nil
}

// resolveRevision computes a head's current revision on a scoped
// connection. The head's fixed revision, when present, bounds the
// query; otherwise the unbounded head of the path is used. The change
// accumulator starts at the NoChange sentinel and takes the maximum of
// each query result, so a future multi-path head aggregates naturally.
func (s *Source) resolveRevision(ctx context.Context, head scm.Head) (*scm.Revision, error) {
	var revision scm.Revision
	err := p4.WithConnection(ctx, s.provider, s.credential, func(conn p4.Connection) error {
		query := head.Path + "/..."
		if head.FixedRevision != "" {
			query = head.Path + "/...@" + head.FixedRevision
		}

		change := scm.NoChange
		c, err := conn.LatestChange(ctx, query)
		if err != nil {
			return err
		}
		if c > change {
			change = c
		}

		revision = scm.NewRevision(head, scm.NewChangeRef(change))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &revision, nil
}

// Workspace derives a client workspace for a depot path using the
// source's naming template and charset. Pure given the configuration;
// a missing path fails immediately.
func (s *Source) Workspace(path string) (workspace.Workspace, error) {
	if path == "" {
		return workspace.Workspace{}, fmt.Errorf("missing path")
	}

	view, err := viewmap.ClientView(path, s.format)
	if err != nil {
		return workspace.Workspace{}, err
	}
	charset, err := viewmap.ResolveCharset(s.charset)
	if err != nil {
		return workspace.Workspace{}, err
	}

	return workspace.Workspace{
		Name:    s.format,
		Charset: charset,
		Spec:    workspace.Spec{View: []string{view}},
	}, nil
}

// Build constructs the executable job configuration for a selected
// (head, revision) pair: workspace derived from the head path, the
// source's populate strategy, and the traits applied in order. Pure
// for fixed (head, revision, traits); with no traits the base
// configuration is returned unchanged.
func (s *Source) Build(head scm.Head, revision *scm.Revision) (workspace.ExecutableConfig, error) {
	ws, err := s.Workspace(head.Path)
	if err != nil {
		return workspace.ExecutableConfig{}, err
	}

	cfg := workspace.ExecutableConfig{
		Credential: s.credential,
		Workspace:  ws,
		Populate:   s.populate,
		BrowserURL: s.browserURL,
		Head:       head,
		Revision:   revision,
	}
	for _, trait := range s.traits {
		trait.Apply(&cfg)
	}
	return cfg, nil
}
