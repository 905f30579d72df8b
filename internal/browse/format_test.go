package browse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"panoproperty_backend/internal/model"
)

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "$1,825,000", FormatPrice(1825000, model.ListingTypeSale))
	require.Equal(t, "$5,400/mo", FormatPrice(5400, model.ListingTypeRent))
	require.Equal(t, "$950", FormatPrice(950, model.ListingTypeSale))
}

func TestPricePerSqft(t *testing.T) {
	require.Equal(t, int64(1250), PricePerSqft(model.Property{Price: 1825000, Sqft: 1460}))
	require.Equal(t, int64(0), PricePerSqft(model.Property{Price: 1}))
}

func TestFeaturedPicks(t *testing.T) {
	picks := FeaturedPicks(listings(), 2)
	require.Equal(t, []string{"a", "d"}, ids(picks))
	require.Len(t, FeaturedPicks(listings(), 1), 1)
	require.Empty(t, FeaturedPicks(nil, 2))

	require.True(t, ShowFeaturedPicks(Filters{}, SortFeatured))
	require.False(t, ShowFeaturedPicks(Filters{}, SortNewest))
	require.False(t, ShowFeaturedPicks(Filters{City: "Seattle"}, SortFeatured))
}

func TestBuildFacets(t *testing.T) {
	facets := BuildFacets(listings())
	require.Equal(t, []string{"San Francisco", "Scottsdale", "Seattle"}, facets.Cities)
	require.Equal(t, []string{"apartment", "condo", "townhouse", "villa"}, facets.PropertyTypes)
	require.Equal(t, []string{"sale", "rent"}, facets.ListingTypes)
}
