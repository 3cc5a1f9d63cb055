package migration

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// LoadDir reads migration steps from SQL file pairs named
// <revision>_<name>.up.sql / <revision>_<name>.down.sql. Files are ordered
// lexically by revision and each step's parent is the preceding revision, so
// the directory defines the whole chain.
func LoadDir(fsys fs.FS) (*Chain, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	type pair struct {
		revision string
		name     string
		up       string
		down     string
	}
	pairs := make(map[string]*pair)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filename := entry.Name()

		var suffix string
		switch {
		case strings.HasSuffix(filename, upSuffix):
			suffix = upSuffix
		case strings.HasSuffix(filename, downSuffix):
			suffix = downSuffix
		default:
			continue
		}

		base := strings.TrimSuffix(filename, suffix)
		revision, name, ok := strings.Cut(base, "_")
		if !ok || revision == "" {
			return nil, fmt.Errorf("migration file %q is not named <revision>_<name>%s", filename, suffix)
		}

		p, exists := pairs[revision]
		if !exists {
			p = &pair{revision: revision, name: name}
			pairs[revision] = p
		}
		if p.name != name {
			return nil, fmt.Errorf("revision %q has mismatched names %q and %q", revision, p.name, name)
		}

		body, err := fs.ReadFile(fsys, filename)
		if err != nil {
			return nil, fmt.Errorf("read migration file %q: %w", filename, err)
		}
		script := strings.TrimSpace(string(body))
		if script == "" {
			return nil, fmt.Errorf("migration file %q is empty", filename)
		}

		if suffix == upSuffix {
			p.up = script
		} else {
			p.down = script
		}
	}

	revisions := make([]string, 0, len(pairs))
	for revision := range pairs {
		revisions = append(revisions, revision)
	}
	sort.Strings(revisions)

	steps := make([]Step, 0, len(revisions))
	parent := RevisionNone
	for _, revision := range revisions {
		p := pairs[revision]
		if p.up == "" {
			return nil, fmt.Errorf("revision %q is missing its %s file", revision, upSuffix)
		}
		if p.down == "" {
			return nil, fmt.Errorf("revision %q is missing its %s file", revision, downSuffix)
		}
		steps = append(steps, Step{
			Revision: revision,
			Parent:   parent,
			Name:     p.name,
			Up:       p.up,
			Down:     p.down,
		})
		parent = revision
	}

	return NewChain(steps)
}
