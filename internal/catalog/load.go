package catalog

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"go.yaml.in/yaml/v3"
)

// catalogFile is the on-disk override format.
//
//	intents:
//	  - id: fix
//	    patterns: ["修复|(?i:\\bfix\\b)"]
//	templates:
//	  fix:
//	    name: Bug Fix
//	    subtasks: [...]
type catalogFile struct {
	Intents   []IntentDefinition  `yaml:"intents"`
	Templates map[string]Template `yaml:"templates"`
}

// Load reads a YAML catalog file and merges it over the built-in catalog.
// Intents replace built-in intents with the same ID or are appended;
// templates replace built-in templates with the same category or are added.
// The merged catalog is validated before it is returned.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse merges YAML catalog data over the built-in catalog.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	intents := DefaultIntents()
	for _, override := range file.Intents {
		if override.Category == "" {
			override.Category = override.ID
		}
		replaced := false
		for i := range intents {
			if intents[i].ID == override.ID {
				intents[i] = override
				replaced = true
				break
			}
		}
		if !replaced {
			intents = append(intents, override)
		}
	}

	templates := DefaultTemplates()
	// Map iteration order is random; walk built-ins first, then new
	// categories in sorted order so Categories() stays stable.
	for i := range templates {
		if override, ok := file.Templates[templates[i].Category]; ok {
			override.Category = templates[i].Category
			templates[i] = override
		}
	}
	for _, category := range slices.Sorted(maps.Keys(file.Templates)) {
		if _, builtin := findTemplate(templates, category); builtin {
			continue
		}
		tpl := file.Templates[category]
		tpl.Category = category
		templates = append(templates, tpl)
	}

	c, err := New(intents, templates)
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return c, nil
}

func findTemplate(templates []Template, category string) (int, bool) {
	for i, t := range templates {
		if t.Category == category {
			return i, true
		}
	}
	return -1, false
}
