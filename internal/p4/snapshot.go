package p4

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// snapshotFile is the YAML shape of a backend snapshot: a declarative
// description of depot state the CLI can scan against. Real
// deployments inject their own Provider through the library API; the
// snapshot backend exists for dry runs, demos and tests.
type snapshotFile struct {
	Changes map[string][]int64 `yaml:"changes"` // depot dir -> change numbers
	Files   []string           `yaml:"files"`
	Dirs    []string           `yaml:"dirs"`
	Streams []snapshotStream   `yaml:"streams"`
	Labels  []snapshotLabel    `yaml:"labels"`
}

type snapshotStream struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
	Type string `yaml:"type"`
}

type snapshotLabel struct {
	Name   string   `yaml:"name"`
	View   []string `yaml:"view"`
	Change int64    `yaml:"change"`
}

// LoadSnapshot reads a snapshot file into an in-memory backend.
func LoadSnapshot(path string) (*Fake, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshotFile
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	fake := NewFake()
	for dir, changes := range snap.Changes {
		for _, c := range changes {
			fake.AddChange(dir, c)
		}
	}
	for _, f := range snap.Files {
		fake.AddFile(f)
	}
	for _, d := range snap.Dirs {
		fake.AddDir(d)
	}
	for _, s := range snap.Streams {
		fake.AddStream(Stream(s))
	}
	for _, l := range snap.Labels {
		fake.AddLabel(Label{Name: l.Name, View: l.View}, l.Change)
	}
	return fake, nil
}
