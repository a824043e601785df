package search

import "sync/atomic"

// UncategorizedName is substituted when a category id cannot be resolved.
const UncategorizedName = "Uncategorized"

// Category is the resolved shape for a category id.
type Category struct {
	ID   string
	Name string
	Slug string
	Icon string
}

// CategoryResolver maps category ids to display names from an atomic
// in-memory snapshot refreshed together with the entity indexes.
type CategoryResolver struct {
	snap atomic.Pointer[map[string]Category]
}

// NewCategoryResolver returns an empty resolver.
func NewCategoryResolver() *CategoryResolver {
	r := &CategoryResolver{}
	empty := map[string]Category{}
	r.snap.Store(&empty)
	return r
}

// Swap atomically replaces the category mapping.
func (r *CategoryResolver) Swap(categories []Category) {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	r.snap.Store(&m)
}

// Name resolves a category id to its display name, falling back to
// UncategorizedName for unknown ids.
func (r *CategoryResolver) Name(id string) string {
	if c, ok := (*r.snap.Load())[id]; ok && c.Name != "" {
		return c.Name
	}
	return UncategorizedName
}
