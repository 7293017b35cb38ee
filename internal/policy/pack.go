package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack is a named, shareable fragment of checks that merges into a base
// policy. Its fields are declared directly rather than inlining Policy;
// `version` is the pack's own version.
type Pack struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	PackVersion string  `yaml:"version"`
	Author      string  `yaml:"author"`
	OSFamily    string  `yaml:"os,omitempty"`
	Checks      []Check `yaml:"checks"`
}

// PackInfo is a summary of a pack for listing.
type PackInfo struct {
	Name        string
	Description string
	Version     string
	Author      string
	Enabled     bool
	Path        string
	CheckCount  int
}

// LoadPacks reads every .yaml file from packsDir and merges it into base,
// later packs overriding earlier ones by check id. A pack file whose base
// name starts with "_" is listed but skipped.
func LoadPacks(packsDir string, base *Policy) (*Policy, []PackInfo, error) {
	var infos []PackInfo

	entries, err := os.ReadDir(packsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil, nil
		}
		return nil, nil, fmt.Errorf("policy: reading packs dir %s: %w", packsDir, err)
	}

	result := clonePolicy(base)

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		path := filepath.Join(packsDir, entry.Name())
		baseName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		enabled := !strings.HasPrefix(baseName, "_")

		pack, err := loadPack(path)
		if err != nil {
			infos = append(infos, PackInfo{Name: baseName, Enabled: enabled, Path: path})
			continue
		}

		info := PackInfo{
			Name:        pack.Name,
			Description: pack.Description,
			Version:     pack.PackVersion,
			Author:      pack.Author,
			Enabled:     enabled,
			Path:        path,
			CheckCount:  len(pack.Checks),
		}
		if info.Name == "" {
			info.Name = baseName
		}
		infos = append(infos, info)

		if !enabled {
			continue
		}
		mergePackInto(result, pack)
	}

	return result, infos, nil
}

func loadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s: %w", path, err)
	}
	return &pack, nil
}

// mergePackInto merges a pack's checks into target, a later check with a
// duplicate id replacing the earlier one rather than duplicating it.
func mergePackInto(target *Policy, pack *Pack) {
	byID := make(map[any]int, len(target.Checks))
	for i, c := range target.Checks {
		byID[c.ID] = i
	}
	for _, c := range pack.Checks {
		if i, ok := byID[c.ID]; ok {
			target.Checks[i] = c
			continue
		}
		target.Checks = append(target.Checks, c)
		byID[c.ID] = len(target.Checks) - 1
	}
}

func clonePolicy(p *Policy) *Policy {
	clone := &Policy{OSFamily: p.OSFamily}
	clone.Checks = make([]Check, len(p.Checks))
	copy(clone.Checks, p.Checks)
	return clone
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
