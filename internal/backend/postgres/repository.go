package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/model"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// Repository implements backend.Tables on top of gorm.
type Repository struct {
	db *gorm.DB
}

var _ backend.Tables = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the rows to migrate, parents first.
func Models() []interface{} {
	return []interface{}{
		&model.AccountRow{},
		&model.ProfileRow{},
		&model.PropertyRow{},
		&model.PhotoRow{},
		&model.SavedPropertyRow{},
	}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return backend.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return backend.ErrDuplicate
		case invalidTextRepresentation:
			// ids that are not uuids name no row
			return backend.ErrNotFound
		}
	}
	return err
}

/* properties */

func (r *Repository) ListProperties(ctx context.Context) ([]model.PropertyRow, error) {
	var rows []model.PropertyRow
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error
	return rows, translate(err)
}

func (r *Repository) ListPropertiesBySeller(ctx context.Context, sellerID string) ([]model.PropertyRow, error) {
	var rows []model.PropertyRow
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, translate(err)
}

func (r *Repository) GetProperty(ctx context.Context, id string) (*model.PropertyRow, error) {
	var row model.PropertyRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *Repository) InsertProperty(ctx context.Context, row *model.PropertyRow) error {
	return translate(r.db.WithContext(ctx).Omit("Photos").Create(row).Error)
}

func (r *Repository) UpdateProperty(ctx context.Context, row *model.PropertyRow) error {
	res := r.db.WithContext(ctx).
		Model(&model.PropertyRow{}).
		Where("id = ?", row.ID).
		Select("*").
		Omit("id", "created_at", "Photos").
		Updates(row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return backend.ErrNotFound
	}
	return translate(r.db.WithContext(ctx).Where("id = ?", row.ID).First(row).Error)
}

func (r *Repository) DeleteProperty(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PropertyRow{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return backend.ErrNotFound
	}
	return nil
}

/* property_photos */

func (r *Repository) ListPhotos(ctx context.Context, propertyIDs []string) ([]model.PhotoRow, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	var rows []model.PhotoRow
	err := r.db.WithContext(ctx).
		Where("property_id IN ?", propertyIDs).
		Order("property_id, sort_order asc").
		Find(&rows).Error
	return rows, translate(err)
}

func (r *Repository) DeletePhotos(ctx context.Context, propertyID string) error {
	return translate(r.db.WithContext(ctx).Where("property_id = ?", propertyID).Delete(&model.PhotoRow{}).Error)
}

func (r *Repository) InsertPhotos(ctx context.Context, rows []model.PhotoRow) error {
	if len(rows) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&rows).Error)
}

/* profiles */

func (r *Repository) GetProfile(ctx context.Context, userID string) (*model.ProfileRow, error) {
	var row model.ProfileRow
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *Repository) InsertProfile(ctx context.Context, row *model.ProfileRow) error {
	return translate(r.db.WithContext(ctx).Create(row).Error)
}

func (r *Repository) UpdateRole(ctx context.Context, userID string, role model.Role) error {
	res := r.db.WithContext(ctx).
		Model(&model.ProfileRow{}).
		Where("id = ?", userID).
		Update("role", string(role))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return backend.ErrNotFound
	}
	return nil
}

/* saved_properties */

func (r *Repository) ListSavedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.SavedPropertyRow{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("property_id", &ids).Error
	return ids, translate(err)
}

func (r *Repository) InsertSaved(ctx context.Context, userID, propertyID string) error {
	row := model.SavedPropertyRow{UserID: userID, PropertyID: propertyID}
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *Repository) DeleteSaved(ctx context.Context, userID, propertyID string) error {
	return translate(r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&model.SavedPropertyRow{}).Error)
}

/* accounts */

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*model.AccountRow, error) {
	var row model.AccountRow
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (*model.AccountRow, error) {
	var row model.AccountRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *Repository) InsertAccount(ctx context.Context, row *model.AccountRow) error {
	return translate(r.db.WithContext(ctx).Create(row).Error)
}
