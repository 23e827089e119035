// Package workspace holds the value types describing the executable
// job configuration produced by a source build: the client workspace
// shape, the population strategy, and the traits that modify both.
package workspace

import "github.com/calegria/depotscan/internal/scm"

// Spec is the client view portion of a workspace definition.
type Spec struct {
	View []string
}

// Workspace describes a manual client workspace: a name derived from
// the source's format template, an IANA charset name, and the view
// mapping the depot into the client.
type Workspace struct {
	Name    string
	Charset string
	Spec    Spec
}

// PopulateMode selects how the workspace is brought up to date.
type PopulateMode string

const (
	// PopulateAuto syncs files the backend thinks are out of date.
	PopulateAuto PopulateMode = "auto"
	// PopulateHave syncs against the have-list only.
	PopulateHave PopulateMode = "have"
	// PopulateForce re-syncs everything regardless of have-list.
	PopulateForce PopulateMode = "force"
)

// Populate is the population strategy record. It travels opaquely from
// configuration to the executable config; this module never executes
// it.
type Populate struct {
	Mode     PopulateMode
	Quiet    bool
	Pin      string
	Parallel int
}

// ExecutableConfig is the job configuration handed downstream once a
// (head, revision) pair has been selected. Traits mutate the config
// during Build; after Build returns it is treated as immutable.
type ExecutableConfig struct {
	Credential string
	Workspace  Workspace
	Populate   Populate
	BrowserURL string

	Head     scm.Head
	Revision *scm.Revision
}

// Trait is an ordered configuration modifier. Traits are applied in
// declaration order during Build; a later trait may override the
// effects of an earlier one.
type Trait interface {
	Apply(cfg *ExecutableConfig)
}

// TraitFunc adapts a function to the Trait interface.
type TraitFunc func(cfg *ExecutableConfig)

// Apply implements Trait.
func (f TraitFunc) Apply(cfg *ExecutableConfig) {
	f(cfg)
}
