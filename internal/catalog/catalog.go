package catalog

import (
	"fmt"
	"strings"
)

// Catalog is an immutable registry of model variants. Safe for concurrent reads.
type Catalog struct {
	variants []ModelVariant
	index    map[string]int
}

// New builds a catalog preserving the given order.
// Identifiers must be unique and non-empty; parameter count and context length must be positive.
func New(variants ...ModelVariant) (*Catalog, error) {
	c := &Catalog{
		variants: make([]ModelVariant, 0, len(variants)),
		index:    make(map[string]int, len(variants)),
	}

	for i, v := range variants {
		if err := validateVariant(v); err != nil {
			return nil, fmt.Errorf("variant %d: %w", i, err)
		}
		if _, dup := c.index[v.ID]; dup {
			return nil, fmt.Errorf("variant %d: duplicate id %q", i, v.ID)
		}
		c.index[v.ID] = len(c.variants)
		c.variants = append(c.variants, v.clone())
	}

	return c, nil
}

func validateVariant(v ModelVariant) error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("id must not be empty")
	}
	if strings.TrimSpace(v.Repo) == "" {
		return fmt.Errorf("%s: repo must not be empty", v.ID)
	}
	if v.ParamsBillions <= 0 {
		return fmt.Errorf("%s: params_billions must be positive, got %g", v.ID, v.ParamsBillions)
	}
	if v.ContextLength <= 0 {
		return fmt.Errorf("%s: context_length must be positive, got %d", v.ID, v.ContextLength)
	}
	return nil
}

// List returns all variants in registration order.
func (c *Catalog) List() []ModelVariant {
	out := make([]ModelVariant, len(c.variants))
	for i, v := range c.variants {
		out[i] = v.clone()
	}
	return out
}

// ByID looks up a variant by identifier.
func (c *Catalog) ByID(id string) (ModelVariant, error) {
	i, ok := c.index[id]
	if !ok {
		return ModelVariant{}, notFound(id)
	}
	return c.variants[i].clone(), nil
}

// IDs returns the identifiers in registration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.variants))
	for i, v := range c.variants {
		ids[i] = v.ID
	}
	return ids
}

// Len returns the number of variants.
func (c *Catalog) Len() int {
	return len(c.variants)
}
