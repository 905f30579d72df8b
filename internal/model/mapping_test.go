package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleProperty() Property {
	seller := "7f7c6d1e-0d5b-4a55-9a49-0f1f1c7d0a11"
	return Property{
		ID:           "2b0f3c44-6a7e-4f0e-8a59-5d1a4f7c9e21",
		SellerID:     &seller,
		Slug:         "skyline-modern-loft",
		Title:        "Skyline Modern Loft",
		Address:      "128 Market Street",
		City:         "San Francisco",
		State:        "CA",
		Zip:          "94105",
		Price:        1825000,
		ListingType:  ListingTypeSale,
		PropertyType: PropertyTypeCondo,
		Bedrooms:     2,
		Bathrooms:    2.5,
		Sqft:         1460,
		YearBuilt:    2018,
		IsNew:        true,
		IsFeatured:   true,
		Description:  "Glass-wrapped loft.",
		Features:     []string{"Private balcony", "EV charging"},
		Panoramas: []Panorama{
			{URL: "https://cdn.test/alma.jpg", Label: "Living Room"},
			{URL: "https://cdn.test/bma-1.jpg", Label: "Kitchen"},
		},
		ThumbnailURL:  "https://cdn.test/thumb.jpg",
		MatterportURL: "https://my.matterport.com/show/?m=CD7sMSjX8rT",
		Agent: Agent{
			Name:  "Ava Brooks",
			Phone: "(415) 555-0191",
			Email: "ava.brooks@panoproperty.com",
			Photo: "https://cdn.test/ava.jpg",
		},
	}
}

func TestPropertyRowMappingIsBidirectional(t *testing.T) {
	p := sampleProperty()

	row := PropertyToRow(p)
	require.Equal(t, "sale", row.ListingType)
	require.Equal(t, "condo", row.PropertyType)
	require.Equal(t, "Ava Brooks", row.AgentName)
	require.NotNil(t, row.ThumbnailURL)

	photos := PhotoRowsFor(row.ID, p.Panoramas)
	back := PropertyFromRow(row, photos)
	require.Equal(t, p, back)
}

func TestPropertyToRowLeavesEmptyThumbnailNull(t *testing.T) {
	p := sampleProperty()
	p.ThumbnailURL = ""

	row := PropertyToRow(p)
	require.Nil(t, row.ThumbnailURL)
	require.Equal(t, "", PropertyFromRow(row, nil).ThumbnailURL)
}

func TestPhotoRowsAreNumberedFromOne(t *testing.T) {
	rows := PhotoRowsFor("prop-1", []Panorama{
		{URL: "a", Label: "A"},
		{URL: "b", Label: "B"},
		{URL: "c", Label: "C"},
	})
	require.Len(t, rows, 3)
	for i, row := range rows {
		require.Equal(t, i+1, row.SortOrder)
		require.Equal(t, "prop-1", row.PropertyID)
	}
}

func TestGroupPhotosKeepsOrder(t *testing.T) {
	grouped := GroupPhotos([]PhotoRow{
		{PropertyID: "a", URL: "1"},
		{PropertyID: "b", URL: "2"},
		{PropertyID: "a", URL: "3"},
	})
	require.Len(t, grouped["a"], 2)
	require.Equal(t, "1", grouped["a"][0].URL)
	require.Equal(t, "3", grouped["a"][1].URL)
	require.Len(t, grouped["b"], 1)
}

func TestCardImageFallsBackToFirstPanorama(t *testing.T) {
	p := sampleProperty()
	require.Equal(t, "https://cdn.test/thumb.jpg", p.CardImage())

	p.ThumbnailURL = ""
	require.Equal(t, "https://cdn.test/alma.jpg", p.CardImage())

	p.Panoramas = nil
	require.Equal(t, "", p.CardImage())
}

func TestOwnedBy(t *testing.T) {
	p := sampleProperty()
	require.True(t, p.OwnedBy(*p.SellerID))
	require.False(t, p.OwnedBy("someone-else"))
	require.False(t, p.OwnedBy(""))

	p.SellerID = nil
	require.False(t, p.OwnedBy("anyone"))
}

func TestProfileMappingDefaultsUnknownRoleToBuyer(t *testing.T) {
	row := ProfileRow{ID: "u1", Email: "a@b.c", Role: "admin"}
	require.Equal(t, RoleBuyer, ProfileFromRow(row).Role)

	row.Role = "SELLER"
	p := ProfileFromRow(row)
	require.Equal(t, RoleSeller, p.Role)
	require.Equal(t, "seller", ProfileToRow(p).Role)
}

func TestPrepareAssignsIDAndSlug(t *testing.T) {
	row := PropertyRow{Title: "Mission Garden Flat"}
	row.Prepare()
	require.NotEmpty(t, row.ID)
	require.Equal(t, "mission-garden-flat", row.Slug)

	id := row.ID
	row.Prepare()
	require.Equal(t, id, row.ID)
}
