// Package session mirrors an auth session into per-client state: the
// profile and role, the saved listing ids, and the capabilities derived
// from them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"panoproperty_backend/internal/auth"
	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/model"
)

var (
	ErrSignInRequired       = errors.New("sign in required")
	ErrConfirmationRequired = errors.New("confirmation required")
)

const eventTimeout = 10 * time.Second

// Auth is the part of the auth service a holder depends on.
type Auth interface {
	GetSession(ctx context.Context, accessToken string) (*auth.Session, error)
	Subscribe(fn func(auth.Event)) (unsubscribe func())
}

type Store interface {
	backend.ProfileStore
	backend.SavedStore
}

// Holder owns the state of one client session. Start fetches the session and
// subscribes to changes, Close unsubscribes. Every change goes through apply.
type Holder struct {
	auth    Auth
	store   Store
	pending *PendingRoles
	logger  *zap.Logger
	token   string

	mu          sync.RWMutex
	session     *auth.Session
	profile     *model.Profile
	saved       []string
	unsubscribe func()
	closed      bool
}

func NewHolder(a Auth, store Store, pending *PendingRoles, logger *zap.Logger, accessToken string) *Holder {
	return &Holder{
		auth:    a,
		store:   store,
		pending: pending,
		logger:  logger,
		token:   accessToken,
	}
}

// Start fetches the current session once and then follows its changes.
func (h *Holder) Start(ctx context.Context) error {
	session, err := h.auth.GetSession(ctx, h.token)
	if err != nil && !errors.Is(err, auth.ErrNoSession) {
		return err
	}
	if err := h.apply(ctx, session); err != nil {
		return err
	}

	unsubscribe := h.auth.Subscribe(h.onEvent)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		unsubscribe()
		return nil
	}
	h.unsubscribe = unsubscribe
	h.mu.Unlock()
	return nil
}

// Close stops following session changes. Later updates are ignored.
func (h *Holder) Close() {
	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.closed = true
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (h *Holder) onEvent(e auth.Event) {
	if e.Session == nil || e.Session.ID != h.SessionID() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	var next *auth.Session
	if e.Type == auth.SignedIn {
		next = e.Session
	}
	if err := h.apply(ctx, next); err != nil {
		h.logger.Error("session update failed", zap.String("session_id", e.Session.ID), zap.Error(err))
	}
}

// apply is the only path that changes the holder's state. A nil session
// clears it.
func (h *Holder) apply(ctx context.Context, session *auth.Session) error {
	if h.isClosed() {
		return nil
	}
	if session == nil {
		h.mu.Lock()
		h.session, h.profile, h.saved = nil, nil, nil
		h.mu.Unlock()
		return nil
	}

	profile, err := h.loadProfile(ctx, session)
	if err != nil {
		return err
	}
	saved, err := h.store.ListSavedIDs(ctx, session.UserID)
	if err != nil {
		return err
	}
	if role, ok := h.pending.Take(session.ID); ok && role != profile.Role {
		if err := h.store.UpdateRole(ctx, session.UserID, role); err != nil {
			h.pending.Stage(session.ID, role)
			return err
		}
		h.logger.Info("pending role applied", zap.String("user_id", session.UserID), zap.String("role", string(role)))
		profile.Role = role
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.session = session
	h.profile = profile
	h.saved = saved
	return nil
}

// loadProfile fetches the profile, creating it as a buyer on first sight.
func (h *Holder) loadProfile(ctx context.Context, session *auth.Session) (*model.Profile, error) {
	row, err := h.store.GetProfile(ctx, session.UserID)
	if errors.Is(err, backend.ErrNotFound) {
		row = &model.ProfileRow{
			ID:        session.UserID,
			Email:     session.Email,
			FullName:  session.FullName,
			AvatarURL: session.AvatarURL,
			Role:      string(model.RoleBuyer),
		}
		err = h.store.InsertProfile(ctx, row)
		if errors.Is(err, backend.ErrDuplicate) {
			row, err = h.store.GetProfile(ctx, session.UserID)
		}
	}
	if err != nil {
		return nil, err
	}
	profile := model.ProfileFromRow(*row)
	return &profile, nil
}

func (h *Holder) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

func (h *Holder) SignedIn() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session != nil
}

func (h *Holder) Session() *auth.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session
}

func (h *Holder) SessionID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return ""
	}
	return h.session.ID
}

func (h *Holder) UserID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return ""
	}
	return h.session.UserID
}

// Profile returns a copy of the loaded profile, nil when signed out.
func (h *Holder) Profile() *model.Profile {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.profile == nil {
		return nil
	}
	p := *h.profile
	return &p
}

// Role is empty when signed out.
func (h *Holder) Role() model.Role {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.profile == nil {
		return ""
	}
	return h.profile.Role
}

func (h *Holder) Capabilities() Capabilities {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var role model.Role
	if h.profile != nil {
		role = h.profile.Role
	}
	return CapabilitiesFor(h.session != nil, role)
}

// BecomeSeller upgrades a buyer. The change is persisted only when the user
// confirmed it; there is no way back down.
func (h *Holder) BecomeSeller(ctx context.Context, confirmed bool) error {
	userID := h.UserID()
	if userID == "" {
		return ErrSignInRequired
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if h.Role() == model.RoleSeller {
		return nil
	}
	if err := h.store.UpdateRole(ctx, userID, model.RoleSeller); err != nil {
		return err
	}

	h.mu.Lock()
	if h.profile != nil {
		h.profile.Role = model.RoleSeller
	}
	h.mu.Unlock()
	h.logger.Info("user became seller", zap.String("user_id", userID))
	return nil
}

// SavedIDs returns the cached saved listing ids.
func (h *Holder) SavedIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string{}, h.saved...)
}

func (h *Holder) IsSaved(propertyID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range h.saved {
		if id == propertyID {
			return true
		}
	}
	return false
}

// SetSaved updates the cached ids without consulting the store.
func (h *Holder) SetSaved(propertyID string, saved bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := make([]string, 0, len(h.saved)+1)
	for _, id := range h.saved {
		if id != propertyID {
			next = append(next, id)
		}
	}
	if saved {
		next = append(next, propertyID)
	}
	h.saved = next
}
