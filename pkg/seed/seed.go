package seed

import (
	"context"
	"fmt"

	"panoproperty_backend/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the part of the backend the seeder writes to.
type Store interface {
	ListProperties(ctx context.Context) ([]model.PropertyRow, error)
	InsertProperty(ctx context.Context, row *model.PropertyRow) error
	InsertPhotos(ctx context.Context, rows []model.PhotoRow) error
}

var namespace = uuid.MustParse("0b6f2a4e-7c1d-4f59-9a38-5d2e8c4b1f70")

// DemoID returns the stable id of a demo listing key such as "prop-1".
func DemoID(key string) string {
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

const (
	alma     = "https://pannellum.org/images/alma.jpg"
	bma      = "https://pannellum.org/images/bma-1.jpg"
	cerro    = "https://pannellum.org/images/cerro-toco-0.jpg"
	photoAva = "https://images.unsplash.com/photo-1544723795-3fb6469f5b39?auto=format&fit=crop&w=400&q=80"
	photoNoa = "https://images.unsplash.com/photo-1500648767791-00dcc994a43e?auto=format&fit=crop&w=400&q=80"
)

// DemoProperties are the seller-less listings shown on an empty install.
func DemoProperties() []model.Property {
	return []model.Property{
		{
			ID: DemoID("prop-1"), Title: "Skyline Modern Loft",
			Address: "128 Market Street", City: "San Francisco", State: "CA", Zip: "94105",
			Price: 1825000, ListingType: model.ListingTypeSale, PropertyType: model.PropertyTypeCondo,
			Bedrooms: 2, Bathrooms: 2, Sqft: 1460, YearBuilt: 2018, IsNew: true, IsFeatured: true,
			Description:   "A bright, glass-wrapped loft with skyline views, high ceilings, and a chef-grade kitchen. Steps from the waterfront with effortless access to transit and dining.",
			Features:      []string{"Floor-to-ceiling windows", "Private balcony", "Smart home lighting", "Concierge service", "Fitness center access", "EV charging"},
			Panoramas:     []model.Panorama{{URL: alma, Label: "Living Room"}, {URL: bma, Label: "Kitchen"}, {URL: cerro, Label: "City View"}},
			MatterportURL: "https://my.matterport.com/show/?m=CD7sMSjX8rT",
			Agent:         model.Agent{Name: "Ava Brooks", Phone: "(415) 555-0191", Email: "ava.brooks@panoproperty.com", Photo: photoAva},
		},
		{
			ID: DemoID("prop-2"), Title: "Mission Garden Flat",
			Address: "742 Valencia Street", City: "San Francisco", State: "CA", Zip: "94110",
			Price: 5400, ListingType: model.ListingTypeRent, PropertyType: model.PropertyTypeApartment,
			Bedrooms: 3, Bathrooms: 2, Sqft: 1280, YearBuilt: 2014, IsFeatured: true,
			Description:   "A sunlit garden flat with modern finishes, in-unit laundry, and a private patio. Walkable to cafes, parks, and nightlife.",
			Features:      []string{"Private patio", "In-unit laundry", "Quartz countertops", "Pet friendly", "Bike storage", "Smart thermostat"},
			Panoramas:     []model.Panorama{{URL: bma, Label: "Kitchen"}, {URL: alma, Label: "Living Room"}, {URL: cerro, Label: "Patio View"}},
			MatterportURL: "https://my.matterport.com/show/?m=Gd8A1xAdG7R",
			Agent:         model.Agent{Name: "Noah Reed", Phone: "(415) 555-0137", Email: "noah.reed@panoproperty.com", Photo: photoNoa},
		},
		{
			ID: DemoID("prop-3"), Title: "Pacific Heights Classic",
			Address: "2108 Jackson Street", City: "San Francisco", State: "CA", Zip: "94115",
			Price: 3650000, ListingType: model.ListingTypeSale, PropertyType: model.PropertyTypeHouse,
			Bedrooms: 4, Bathrooms: 3, Sqft: 2850, YearBuilt: 1922,
			Description:   "A timeless residence with restored detailing, generous entertaining spaces, and a landscaped backyard. Quiet street with nearby parks and schools.",
			Features:      []string{"Restored hardwood floors", "Chef kitchen", "Garden terrace", "Wine storage", "Two-car garage", "Fireplace"},
			Panoramas:     []model.Panorama{{URL: cerro, Label: "Dining Room"}, {URL: alma, Label: "Living Room"}, {URL: bma, Label: "Kitchen"}},
			MatterportURL: "https://my.matterport.com/show/?m=ZKPjvLw8jNr",
			Agent:         model.Agent{Name: "Liam Chen", Phone: "(415) 555-0188", Email: "liam.chen@panoproperty.com", Photo: photoAva},
		},
		{
			ID: DemoID("prop-4"), Title: "SoMa Skyline Townhome",
			Address: "88 Townsend Street", City: "San Francisco", State: "CA", Zip: "94107",
			Price: 9200, ListingType: model.ListingTypeRent, PropertyType: model.PropertyTypeTownhouse,
			Bedrooms: 3, Bathrooms: 3, Sqft: 2100, YearBuilt: 2020, IsNew: true,
			Description:   "Contemporary townhome with rooftop lounge, open-concept living, and skyline views. Close to waterfront trails and tech campuses.",
			Features:      []string{"Rooftop deck", "Home office", "Two-car garage", "Gas range", "Smart locks", "Floor-to-ceiling windows"},
			Panoramas:     []model.Panorama{{URL: alma, Label: "Great Room"}, {URL: cerro, Label: "Rooftop View"}, {URL: bma, Label: "Kitchen"}},
			MatterportURL: "https://my.matterport.com/show/?m=4S6Sp6V1yo8",
			Agent:         model.Agent{Name: "Sofia Martinez", Phone: "(415) 555-0144", Email: "sofia.martinez@panoproperty.com", Photo: photoAva},
		},
		{
			ID: DemoID("prop-5"), Title: "Nob Hill View Residence",
			Address: "1501 California Street", City: "San Francisco", State: "CA", Zip: "94109",
			Price: 2350000, ListingType: model.ListingTypeSale, PropertyType: model.PropertyTypeApartment,
			Bedrooms: 2, Bathrooms: 2, Sqft: 1625, YearBuilt: 2011, IsFeatured: true,
			Description:   "An elevated corner residence with sweeping bay views, curated finishes, and hotel-style amenities in the heart of Nob Hill.",
			Features:      []string{"Bay view terrace", "24/7 concierge", "Spa and pool", "Yoga studio", "Guest suite", "Package room"},
			Panoramas:     []model.Panorama{{URL: cerro, Label: "View Lounge"}, {URL: bma, Label: "Kitchen"}, {URL: alma, Label: "Primary Suite"}},
			MatterportURL: "https://my.matterport.com/show/?m=9s4WcA9WsnS",
			Agent:         model.Agent{Name: "Ethan Park", Phone: "(415) 555-0102", Email: "ethan.park@panoproperty.com", Photo: photoNoa},
		},
		{
			ID: DemoID("prop-6"), Title: "Marina Bay Villa",
			Address: "3250 Scott Street", City: "San Francisco", State: "CA", Zip: "94123",
			Price: 4200000, ListingType: model.ListingTypeSale, PropertyType: model.PropertyTypeVilla,
			Bedrooms: 5, Bathrooms: 4, Sqft: 3420, YearBuilt: 2006,
			Description:   "A serene villa with indoor-outdoor living, a private courtyard, and a light-filled great room. Minutes from the bay and dining.",
			Features:      []string{"Private courtyard", "Chef kitchen", "Spa bath", "Media room", "Outdoor kitchen", "Solar panels"},
			Panoramas:     []model.Panorama{{URL: alma, Label: "Great Room"}, {URL: bma, Label: "Kitchen"}, {URL: cerro, Label: "Courtyard"}},
			MatterportURL: "https://my.matterport.com/show/?m=3DgF2D9aK8q",
			Agent:         model.Agent{Name: "Mia Patel", Phone: "(415) 555-0159", Email: "mia.patel@panoproperty.com", Photo: photoAva},
		},
	}
}

// SeedDemoProperties inserts the demo listings when the properties table is
// empty. It returns how many listings were written.
func SeedDemoProperties(ctx context.Context, store Store, logger *zap.Logger) (int, error) {
	existing, err := store.ListProperties(ctx)
	if err != nil {
		return 0, fmt.Errorf("list properties: %w", err)
	}
	if len(existing) > 0 {
		logger.Debug("properties present, skipping demo seed", zap.Int("count", len(existing)))
		return 0, nil
	}

	demo := DemoProperties()
	// Inserted last to first so the newest-first listing keeps their order.
	for i := len(demo) - 1; i >= 0; i-- {
		p := demo[i]
		row := model.PropertyToRow(p)
		if err := store.InsertProperty(ctx, &row); err != nil {
			return len(demo) - 1 - i, fmt.Errorf("insert %q: %w", p.Title, err)
		}
		if err := store.InsertPhotos(ctx, model.PhotoRowsFor(row.ID, p.Panoramas)); err != nil {
			return len(demo) - 1 - i, fmt.Errorf("insert photos of %q: %w", p.Title, err)
		}
	}

	logger.Info("demo properties seeded", zap.Int("count", len(demo)))
	return len(demo), nil
}
