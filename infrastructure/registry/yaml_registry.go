// Package registry holds the static set of explore categories.
package registry

import (
	_ "embed"
	"fmt"
	"os"

	"dashboard/domain/config"
	"dashboard/domain/core/entities"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCategories []byte

type document struct {
	Categories []entities.CategoryDocument `yaml:"categories"`
}

// Registry is an immutable, ordered set of categories
type Registry struct {
	ids        []string
	categories map[string]*entities.Category
}

// Load reads the registry from path, or the embedded default when path is empty
func Load(path string, cfg *config.DomainConfig) (*Registry, error) {
	data := defaultCategories
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read categories file: %w", err)
		}
	}
	return Parse(data, cfg)
}

// Parse builds a registry from a YAML document. Every category and contract
// reference is validated; duplicate ids are rejected.
func Parse(data []byte, cfg *config.DomainConfig) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("categories document is empty")
	}

	r := &Registry{
		ids:        make([]string, 0, len(doc.Categories)),
		categories: make(map[string]*entities.Category, len(doc.Categories)),
	}
	for _, d := range doc.Categories {
		if _, dup := r.categories[d.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q", d.ID)
		}
		if cfg.MaxContractsPerCategory > 0 && len(d.Contracts) > cfg.MaxContractsPerCategory {
			return nil, fmt.Errorf("category %q has %d contracts, limit is %d", d.ID, len(d.Contracts), cfg.MaxContractsPerCategory)
		}

		category, err := entities.NewCategory(d)
		if err != nil {
			return nil, err
		}
		r.ids = append(r.ids, d.ID)
		r.categories[d.ID] = category
	}
	return r, nil
}

// Get resolves a category id
func (r *Registry) Get(id string) (*entities.Category, bool) {
	c, ok := r.categories[id]
	return c, ok
}

// IDs returns every category id in document order
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}
