// Package browse filters and orders the loaded listings. Everything here is a
// pure function of its inputs.
package browse

import (
	"sort"
	"strconv"
	"strings"

	"panoproperty_backend/internal/model"
)

type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNewest    SortKey = "newest"
	SortSqft      SortKey = "sqft"
)

// ParseSortKey maps unknown or empty keys to SortFeatured.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortSqft:
		return k
	}
	return SortFeatured
}

// Filters holds the criteria as typed by the user. An empty string means no
// constraint.
type Filters struct {
	Search       string `query:"search"`
	City         string `query:"city"`
	PropertyType string `query:"propertyType"`
	ListingType  string `query:"listingType"`
	MinPrice     string `query:"minPrice"`
	MaxPrice     string `query:"maxPrice"`
	Bedrooms     string `query:"bedrooms"`
	Bathrooms    string `query:"bathrooms"`
}

// Active reports whether any criterion is set.
func (f Filters) Active() bool {
	return f != Filters{}
}

// bound parses a numeric criterion. A non-empty value that is not a number
// yields ok=false, and such a criterion matches no property.
func bound(s string) (v float64, set bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != v {
		return 0, true, false
	}
	return v, true, true
}

type criteria struct {
	search                           string
	f                                Filters
	minPrice, maxPrice, beds, baths  float64
	hasMin, hasMax, hasBeds, hasBath bool
	impossible                       bool
}

func compile(f Filters) criteria {
	c := criteria{search: strings.ToLower(f.Search), f: f}
	var okMin, okMax, okBeds, okBaths bool
	c.minPrice, c.hasMin, okMin = bound(f.MinPrice)
	c.maxPrice, c.hasMax, okMax = bound(f.MaxPrice)
	c.beds, c.hasBeds, okBeds = bound(f.Bedrooms)
	c.baths, c.hasBath, okBaths = bound(f.Bathrooms)
	c.impossible = !(okMin && okMax && okBeds && okBaths)
	return c
}

func (c criteria) match(p model.Property) bool {
	if c.impossible {
		return false
	}
	if c.search != "" &&
		!strings.Contains(strings.ToLower(p.Title), c.search) &&
		!strings.Contains(strings.ToLower(p.Address), c.search) &&
		!strings.Contains(strings.ToLower(p.City), c.search) &&
		!strings.Contains(strings.ToLower(p.State), c.search) {
		return false
	}
	if c.f.City != "" && p.City != c.f.City {
		return false
	}
	if c.f.PropertyType != "" && string(p.PropertyType) != c.f.PropertyType {
		return false
	}
	if c.f.ListingType != "" && string(p.ListingType) != c.f.ListingType {
		return false
	}
	if c.hasMin && !(p.Price >= c.minPrice) {
		return false
	}
	if c.hasMax && !(p.Price <= c.maxPrice) {
		return false
	}
	if c.hasBeds && !(p.Bedrooms >= c.beds) {
		return false
	}
	if c.hasBath && !(p.Bathrooms >= c.baths) {
		return false
	}
	return true
}

// Match reports whether p passes every active criterion of f.
func Match(p model.Property, f Filters) bool {
	return compile(f).match(p)
}

// Apply returns the properties matching f ordered by key. The input slice is
// not modified. Ties keep their original relative order.
func Apply(properties []model.Property, f Filters, key SortKey) []model.Property {
	c := compile(f)
	out := make([]model.Property, 0, len(properties))
	for _, p := range properties {
		if c.match(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, less(out, key))
	return out
}

func less(ps []model.Property, key SortKey) func(i, j int) bool {
	switch key {
	case SortPriceAsc:
		return func(i, j int) bool { return ps[i].Price < ps[j].Price }
	case SortPriceDesc:
		return func(i, j int) bool { return ps[i].Price > ps[j].Price }
	case SortNewest:
		return func(i, j int) bool { return ps[i].YearBuilt > ps[j].YearBuilt }
	case SortSqft:
		return func(i, j int) bool { return ps[i].Sqft > ps[j].Sqft }
	}
	return func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.IsFeatured != b.IsFeatured {
			return a.IsFeatured
		}
		if a.IsNew != b.IsNew {
			return a.IsNew
		}
		return false
	}
}
