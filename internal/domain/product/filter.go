package product

import (
	"slices"
	"strings"
)

// Filter narrows the catalog listing. Zero-valued fields do not constrain the
// result; all set criteria must match.
type Filter struct {
	// Categories is an OR-set of category tags. Empty means any category.
	Categories []string
	MinPrice   *int64
	MaxPrice   *int64
	MinRating  *float64
	// Search matches name or category, case-insensitively.
	Search string
}

// Match reports whether p satisfies every criterion of f.
func (f Filter) Match(p Product) bool {
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, p.Category) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			return false
		}
	}
	return true
}

// Find returns products matching f in catalog order.
func (c *Catalog) Find(f Filter) []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	var out []string
	for _, p := range c.products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

// PriceBounds returns the lowest and highest price in the catalog.
// Both are zero for an empty catalog.
func (c *Catalog) PriceBounds() (lo, hi int64) {
	for i, p := range c.products {
		if i == 0 || p.Price < lo {
			lo = p.Price
		}
		if i == 0 || p.Price > hi {
			hi = p.Price
		}
	}
	return lo, hi
}

// Featured returns the first n products.
func (c *Catalog) Featured(n int) []Product {
	n = min(max(n, 0), len(c.products))
	return slices.Clone(c.products[:n])
}

// Related returns up to n products sharing p's category, excluding p.
func (c *Catalog) Related(p Product, n int) []Product {
	var out []Product
	for _, candidate := range c.products {
		if len(out) >= n {
			break
		}
		if candidate.Category == p.Category && candidate.ID != p.ID {
			out = append(out, candidate)
		}
	}
	return out
}
