package browse

import (
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"panoproperty_backend/internal/model"
)

var printer = message.NewPrinter(language.English)

// FeaturedPicks returns the first n featured listings in their loaded order.
func FeaturedPicks(all []model.Property, n int) []model.Property {
	picks := make([]model.Property, 0, n)
	for _, p := range all {
		if len(picks) == n {
			break
		}
		if p.IsFeatured {
			picks = append(picks, p)
		}
	}
	return picks
}

// ShowFeaturedPicks reports whether the featured strip is shown: only for the
// default ordering with no criterion set.
func ShowFeaturedPicks(f Filters, key SortKey) bool {
	return key == SortFeatured && !f.Active()
}

// Facets are the values offered by the filter dropdowns.
type Facets struct {
	Cities        []string `json:"cities"`
	PropertyTypes []string `json:"propertyTypes"`
	ListingTypes  []string `json:"listingTypes"`
}

func BuildFacets(all []model.Property) Facets {
	cities := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, p := range all {
		if p.City != "" {
			cities[p.City] = struct{}{}
		}
		if p.PropertyType != "" {
			types[string(p.PropertyType)] = struct{}{}
		}
	}
	facets := Facets{
		Cities:        sortedKeys(cities),
		PropertyTypes: sortedKeys(types),
	}
	for _, lt := range model.ListingTypes {
		facets.ListingTypes = append(facets.ListingTypes, string(lt))
	}
	return facets
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatPrice renders a price the way listing cards show it: "$1,825,000"
// for sales and "$5,400/mo" for rentals.
func FormatPrice(price float64, lt model.ListingType) string {
	var s string
	if price == math.Trunc(price) {
		s = printer.Sprintf("$%d", int64(price))
	} else {
		s = printer.Sprintf("$%.2f", price)
	}
	if lt == model.ListingTypeRent {
		s += "/mo"
	}
	return s
}

// PricePerSqft is rounded to whole dollars. Zero when sqft is unknown.
func PricePerSqft(p model.Property) int64 {
	if p.Sqft <= 0 {
		return 0
	}
	return int64(math.Round(p.Price / float64(p.Sqft)))
}
