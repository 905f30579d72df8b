// Package saved toggles a user's favorite listings.
package saved

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/session"
)

// Viewer is the signed-in state a toggle reads and updates.
type Viewer interface {
	UserID() string
	IsSaved(propertyID string) bool
	SetSaved(propertyID string, saved bool)
}

type Toggler struct {
	store  backend.SavedStore
	logger *zap.Logger
}

func NewToggler(store backend.SavedStore, logger *zap.Logger) *Toggler {
	return &Toggler{store: store, logger: logger}
}

// Toggle saves propertyID when the viewer's cache says it is not saved and
// unsaves it otherwise. The cache is updated to match without re-reading
// the store. Anonymous viewers get session.ErrSignInRequired and nothing is
// written.
func (t *Toggler) Toggle(ctx context.Context, v Viewer, propertyID string) (bool, error) {
	userID := v.UserID()
	if userID == "" {
		return false, session.ErrSignInRequired
	}

	if v.IsSaved(propertyID) {
		if err := t.store.DeleteSaved(ctx, userID, propertyID); err != nil {
			return true, err
		}
		v.SetSaved(propertyID, false)
		return false, nil
	}

	err := t.store.InsertSaved(ctx, userID, propertyID)
	if err != nil && !errors.Is(err, backend.ErrDuplicate) {
		return false, err
	}
	if err != nil {
		t.logger.Debug("saved row already present", zap.String("user_id", userID), zap.String("property_id", propertyID))
	}
	v.SetSaved(propertyID, true)
	return true, nil
}
