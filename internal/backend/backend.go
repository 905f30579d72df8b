// Package backend declares the hosted services the application consumes:
// tables with equality and ordering filters, and blob storage with public
// URLs. Implementations live in the postgres and memory subpackages and in
// pkg/utils/storage.
package backend

import (
	"context"
	"errors"
	"io"

	"panoproperty_backend/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Buckets used by the listing workflow.
const (
	BucketThumbnails = "property-thumbnails"
	BucketPanoramas  = "property-360"
)

type PropertyStore interface {
	// ListProperties returns every listing, newest first.
	ListProperties(ctx context.Context) ([]model.PropertyRow, error)
	ListPropertiesBySeller(ctx context.Context, sellerID string) ([]model.PropertyRow, error)
	GetProperty(ctx context.Context, id string) (*model.PropertyRow, error)
	InsertProperty(ctx context.Context, row *model.PropertyRow) error
	UpdateProperty(ctx context.Context, row *model.PropertyRow) error
	DeleteProperty(ctx context.Context, id string) error
}

type PhotoStore interface {
	// ListPhotos returns the photos of the given properties ordered by
	// sort_order.
	ListPhotos(ctx context.Context, propertyIDs []string) ([]model.PhotoRow, error)
	DeletePhotos(ctx context.Context, propertyID string) error
	InsertPhotos(ctx context.Context, rows []model.PhotoRow) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*model.ProfileRow, error)
	InsertProfile(ctx context.Context, row *model.ProfileRow) error
	UpdateRole(ctx context.Context, userID string, role model.Role) error
}

type SavedStore interface {
	ListSavedIDs(ctx context.Context, userID string) ([]string, error)
	InsertSaved(ctx context.Context, userID, propertyID string) error
	DeleteSaved(ctx context.Context, userID, propertyID string) error
}

type AccountStore interface {
	GetAccountByEmail(ctx context.Context, email string) (*model.AccountRow, error)
	GetAccount(ctx context.Context, id string) (*model.AccountRow, error)
	InsertAccount(ctx context.Context, row *model.AccountRow) error
}

// Tables is the full table surface of the hosted database.
type Tables interface {
	PropertyStore
	PhotoStore
	ProfileStore
	SavedStore
	AccountStore
}

// Blobs is the hosted object storage. Paths are scoped under per-user
// prefixes by the callers. Uploads replace any object already at the path.
type Blobs interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error
	PublicURL(bucket, path string) string
}
