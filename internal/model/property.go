package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing Types
type ListingType string

const (
	ListingTypeSale ListingType = "sale"
	ListingTypeRent ListingType = "rent"
)

// Property Types
type PropertyType string

const (
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeCondo     PropertyType = "condo"
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeTownhouse PropertyType = "townhouse"
	PropertyTypeVilla     PropertyType = "villa"
)

var (
	ListingTypes  = []ListingType{ListingTypeSale, ListingTypeRent}
	PropertyTypes = []PropertyType{
		PropertyTypeHouse,
		PropertyTypeCondo,
		PropertyTypeApartment,
		PropertyTypeTownhouse,
		PropertyTypeVilla,
	}
)

type Panorama struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

type Agent struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

// Property is a listing as the browsing and listing workflows see it.
// Panoramas are ordered; the first one doubles as the card image when no
// thumbnail was uploaded.
type Property struct {
	ID            string       `json:"id"`
	SellerID      *string      `json:"sellerId,omitempty"`
	Slug          string       `json:"slug,omitempty"`
	Title         string       `json:"title"`
	Address       string       `json:"address"`
	City          string       `json:"city"`
	State         string       `json:"state"`
	Zip           string       `json:"zip"`
	Price         float64      `json:"price"`
	ListingType   ListingType  `json:"listingType"`
	PropertyType  PropertyType `json:"propertyType"`
	Bedrooms      float64      `json:"bedrooms"`
	Bathrooms     float64      `json:"bathrooms"`
	Sqft          int          `json:"sqft"`
	YearBuilt     int          `json:"yearBuilt"`
	IsNew         bool         `json:"isNew"`
	IsFeatured    bool         `json:"isFeatured"`
	Description   string       `json:"description"`
	Features      []string     `json:"features"`
	Panoramas     []Panorama   `json:"panoramas"`
	ThumbnailURL  string       `json:"thumbnailUrl,omitempty"`
	MatterportURL string       `json:"matterportUrl"`
	Agent         Agent        `json:"agent"`
}

// CardImage returns the image shown on a listing card.
func (p Property) CardImage() string {
	if p.ThumbnailURL != "" {
		return p.ThumbnailURL
	}
	if len(p.Panoramas) > 0 {
		return p.Panoramas[0].URL
	}
	return ""
}

// OwnedBy reports whether userID is the listing's seller. Seed listings have
// no seller and are owned by nobody.
func (p Property) OwnedBy(userID string) bool {
	return p.SellerID != nil && userID != "" && *p.SellerID == userID
}

// PropertyRow is the properties table as the backend names it.
type PropertyRow struct {
	ID            string                      `json:"id" gorm:"type:uuid;primaryKey"`
	SellerID      *string                     `json:"seller_id" gorm:"type:uuid;index"`
	Slug          string                      `json:"slug" gorm:"index"`
	Title         string                      `json:"title" gorm:"not null"`
	Address       string                      `json:"address" gorm:"not null"`
	City          string                      `json:"city" gorm:"not null;index"`
	State         string                      `json:"state" gorm:"not null"`
	Zip           string                      `json:"zip"`
	Price         float64                     `json:"price" gorm:"not null"`
	ListingType   string                      `json:"listing_type" gorm:"not null"`
	PropertyType  string                      `json:"property_type" gorm:"not null"`
	Bedrooms      float64                     `json:"bedrooms"`
	Bathrooms     float64                     `json:"bathrooms"`
	Sqft          int                         `json:"sqft"`
	YearBuilt     int                         `json:"year_built"`
	IsNew         bool                        `json:"is_new" gorm:"default:false"`
	IsFeatured    bool                        `json:"is_featured" gorm:"default:false"`
	Description   string                      `json:"description" gorm:"type:text"`
	Features      datatypes.JSONSlice[string] `json:"features"`
	ThumbnailURL  *string                     `json:"thumbnail_url"`
	MatterportURL string                      `json:"matterport_url"`
	AgentName     string                      `json:"agent_name"`
	AgentPhone    string                      `json:"agent_phone"`
	AgentEmail    string                      `json:"agent_email"`
	AgentPhoto    string                      `json:"agent_photo"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`

	Photos []PhotoRow `json:"-" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

func (PropertyRow) TableName() string {
	return "properties"
}

// PhotoRow is one panorama of a listing, ordered by SortOrder starting at 1.
type PhotoRow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PropertyID string    `json:"property_id" gorm:"type:uuid;not null;index"`
	Label      string    `json:"label" gorm:"not null"`
	URL        string    `json:"url" gorm:"type:text;not null"`
	SortOrder  int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
}

func (PhotoRow) TableName() string {
	return "property_photos"
}

// BeforeCreate assigns the id and the URL slug of a new listing.
func (p *PropertyRow) BeforeCreate(tx *gorm.DB) error {
	p.Prepare()
	return nil
}

// Prepare fills the generated columns of a row that is about to be inserted.
func (p *PropertyRow) Prepare() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
}
