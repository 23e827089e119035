// Package config loads source definitions from YAML and validates them
// against an embedded CUE schema before anything touches the backend.
// Malformed definitions (unknown enumerator kinds, empty credentials,
// bad populate modes) are rejected at load time, not mid-scan.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/calegria/depotscan/internal/p4"
	"github.com/calegria/depotscan/internal/source"
	"github.com/calegria/depotscan/internal/workspace"
)

//go:embed schema.cue
var schemaCUE string

// Populate is the persisted population strategy record.
type Populate struct {
	Mode     string `yaml:"mode"`
	Quiet    bool   `yaml:"quiet"`
	Pin      string `yaml:"pin"`
	Parallel int    `yaml:"parallel"`
}

// Source is one persisted source definition.
type Source struct {
	Name       string    `yaml:"name"`
	Credential string    `yaml:"credential"`
	Enumerator string    `yaml:"enumerator"` // "dirs" | "streams"
	Includes   string    `yaml:"includes"`   // newline-delimited depot paths
	Charset    string    `yaml:"charset"`
	Format     string    `yaml:"format"`
	BrowserURL string    `yaml:"browser_url"`
	Populate   *Populate `yaml:"populate"`
}

// File is the top-level configuration file.
type File struct {
	Sources []Source `yaml:"sources"`
}

// Load reads, validates and decodes a configuration file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw YAML against the schema, then decodes it
// strictly (unknown fields are errors).
func Parse(raw []byte) (*File, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &f, nil
}

// validate unifies the decoded document with the embedded CUE schema.
func validate(raw []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	unified := schema.Unify(ctx.Encode(doc))
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// Materialize turns a validated definition into a runnable Source using
// the given connection provider.
func (s Source) Materialize(provider p4.Provider) (*source.Source, error) {
	includes := source.SplitIncludes(s.Includes)

	var enum source.Enumerator
	switch s.Enumerator {
	case "dirs":
		enum = &source.DirEnumerator{Provider: provider, Credential: s.Credential, Includes: includes}
	case "streams":
		enum = &source.StreamEnumerator{Provider: provider, Credential: s.Credential, Includes: includes}
	default:
		return nil, fmt.Errorf("unknown enumerator %q", s.Enumerator)
	}

	opts := []source.Option{
		source.WithIncludes(s.Includes),
		source.WithCharset(s.Charset),
		source.WithFormat(s.Format),
		source.WithBrowserURL(s.BrowserURL),
	}
	if s.Populate != nil {
		opts = append(opts, source.WithPopulate(workspace.Populate{
			Mode:     workspace.PopulateMode(s.Populate.Mode),
			Quiet:    s.Populate.Quiet,
			Pin:      s.Populate.Pin,
			Parallel: s.Populate.Parallel,
		}))
	}

	return source.New(s.Name, s.Credential, provider, enum, opts...), nil
}
