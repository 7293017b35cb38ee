// Package compliance loads a catalog mapping check ids to the regulatory
// and industry-standard references they satisfy (CIS, PCI-DSS, NIST), so a
// report can cite why a given check matters instead of just pass/fail.
package compliance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reference is one citation a check maps to, e.g. CIS 5.2.10.
type Reference struct {
	Standard string `yaml:"standard"`
	Item     string `yaml:"item"`
	Title    string `yaml:"title,omitempty"`
}

// entryFile is the on-disk shape of one catalog file: a list of check ids,
// each with its references. Catalogs are a flat directory of these, one file per check
// or a handful of checks grouped by topic — there is no kingdom/category
// hierarchy to walk, since a compliance reference is keyed directly by
// check id rather than by a weakness taxonomy.
type entryFile struct {
	Entries []struct {
		CheckID    int         `yaml:"check_id"`
		References []Reference `yaml:"references"`
	} `yaml:"entries"`
}

// Catalog is the loaded, queryable compliance mapping.
type Catalog struct {
	byCheckID map[int][]Reference
}

// References returns the references mapped to checkID, or nil if the
// catalog carries none for it.
func (c *Catalog) References(checkID int) []Reference {
	if c == nil {
		return nil
	}
	return c.byCheckID[checkID]
}

// LoadCatalog reads every YAML file in dir (skipping ones whose base name
// starts with "_") and merges their entries into one Catalog keyed by
// check id. A missing directory yields an empty, non-nil catalog: running
// without a compliance catalog configured is a normal, supported mode.
func LoadCatalog(dir string) (*Catalog, error) {
	cat := &Catalog{byCheckID: make(map[int][]Reference)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return cat, nil
		}
		return nil, fmt.Errorf("compliance: reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if strings.HasPrefix(strings.TrimSuffix(name, ext), "_") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("compliance: reading %s: %w", path, err)
		}

		var file entryFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("compliance: parsing %s: %w", path, err)
		}

		for _, e := range file.Entries {
			cat.byCheckID[e.CheckID] = append(cat.byCheckID[e.CheckID], e.References...)
		}
	}

	return cat, nil
}
