package config

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/tracksync/pkg/cerr"
)

// StatusField maps canonical board statuses to the project's single-select
// field and option ids, which GitHub only exposes as opaque node ids.
type StatusField struct {
	FieldID string            `yaml:"fieldId"`
	Options map[string]string `yaml:"options"`
}

// ProjectFile is the optional per-repository .tracksync.yaml.
type ProjectFile struct {
	StatusField   StatusField       `yaml:"statusField"`
	StatusAliases map[string]string `yaml:"statusAliases"`
	DefaultStatus string            `yaml:"defaultStatus"`
	// ExtraProjects lists additional board ids included in snapshot
	// fan-out (tracksync resolve searches all of them).
	ExtraProjects []string `yaml:"extraProjects"`
}

// LoadProjectFile reads the project file at path. A missing file is not an
// error; the zero value is returned.
func LoadProjectFile(path string) (*ProjectFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ProjectFile{}, nil
		}
		return nil, cerr.NewError(cerr.Internal, "failed to read project file", err)
	}
	var pf ProjectFile
	if err := yaml.Unmarshal(content, &pf); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "failed to parse project file", err)
	}
	return &pf, nil
}

// StatusOptionID resolves the option id for a canonical status name, if
// configured.
func (p *ProjectFile) StatusOptionID(status string) (string, bool) {
	id, ok := p.StatusField.Options[status]
	return id, ok
}

// Statuses returns the canonical status names the board offers.
func (p *ProjectFile) Statuses() []string {
	out := make([]string, 0, len(p.StatusField.Options))
	for s := range p.StatusField.Options {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
