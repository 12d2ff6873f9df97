// Package catalog holds the frozen per-provider model table populated at
// router initialization. It never mutates after that.
package catalog

import "github.com/tributary-ai/llm-router/internal/types"

// Catalog is a read-only view over every initialized provider's models.
type Catalog struct {
	byProvider map[string][]types.ModelDescriptor
}

// New builds a Catalog from the provider->models table assembled at init.
func New(byProvider map[string][]types.ModelDescriptor) *Catalog {
	c := &Catalog{byProvider: make(map[string][]types.ModelDescriptor, len(byProvider))}
	for k, v := range byProvider {
		cp := make([]types.ModelDescriptor, len(v))
		copy(cp, v)
		c.byProvider[k] = cp
	}
	return c
}

// Models returns the model table for a provider.
func (c *Catalog) Models(provider string) []types.ModelDescriptor {
	return c.byProvider[provider]
}

// Get looks up one model by id within a provider's table.
func (c *Catalog) Get(provider, modelID string) (types.ModelDescriptor, bool) {
	for _, m := range c.byProvider[provider] {
		if m.ID == modelID {
			return m, true
		}
	}
	return types.ModelDescriptor{}, false
}

// DefaultOf returns the model flagged IsDefault, or the first entry if none is.
func (c *Catalog) DefaultOf(provider string) (types.ModelDescriptor, bool) {
	models := c.byProvider[provider]
	if len(models) == 0 {
		return types.ModelDescriptor{}, false
	}
	for _, m := range models {
		if m.IsDefault {
			return m, true
		}
	}
	return models[0], true
}

// VisionCapable filters a provider's models to those supporting vision.
func (c *Catalog) VisionCapable(provider string) []types.ModelDescriptor {
	var out []types.ModelDescriptor
	for _, m := range c.byProvider[provider] {
		if m.SupportsVision {
			out = append(out, m)
		}
	}
	return out
}

// HasVisionCapable reports whether a provider has at least one vision model.
func (c *Catalog) HasVisionCapable(provider string) bool {
	return len(c.VisionCapable(provider)) > 0
}

// ByComplexity filters a provider's models to a complexity tier, informational only.
func (c *Catalog) ByComplexity(provider string, tier types.ComplexityTier) []types.ModelDescriptor {
	var out []types.ModelDescriptor
	for _, m := range c.byProvider[provider] {
		if m.Complexity == tier {
			out = append(out, m)
		}
	}
	return out
}

// Providers returns the set of provider names carried by this catalog.
func (c *Catalog) Providers() []string {
	out := make([]string, 0, len(c.byProvider))
	for k := range c.byProvider {
		out = append(out, k)
	}
	return out
}
