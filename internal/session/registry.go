package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"panoproperty_backend/internal/auth"
)

// Registry hands out one started Holder per access token. Holders are
// closed when they expire or when their session signs out.
type Registry struct {
	auth    Auth
	store   Store
	pending *PendingRoles
	logger  *zap.Logger

	starts      singleflight.Group
	holders     *cache.Cache
	unsubscribe func()
}

func NewRegistry(a Auth, store Store, pending *PendingRoles, logger *zap.Logger, ttl time.Duration) *Registry {
	r := &Registry{
		auth:    a,
		store:   store,
		pending: pending,
		logger:  logger,
		holders: cache.New(ttl, ttl/2),
	}
	r.holders.OnEvicted(func(_ string, v interface{}) {
		v.(*Holder).Close()
	})
	r.unsubscribe = a.Subscribe(r.onEvent)
	return r
}

func (r *Registry) onEvent(e auth.Event) {
	if e.Type != auth.SignedOut || e.Session == nil {
		return
	}
	for token, item := range r.holders.Items() {
		if item.Object.(*Holder).SessionID() == e.Session.ID {
			r.holders.Delete(token)
		}
	}
}

// Get returns the holder of accessToken, starting one if needed. Holders of
// tokens without a session are returned signed out and are not kept.
func (r *Registry) Get(ctx context.Context, accessToken string) (*Holder, error) {
	if accessToken != "" {
		if v, ok := r.holders.Get(accessToken); ok {
			return v.(*Holder), nil
		}
	}

	// One start per token at a time.
	v, err, _ := r.starts.Do(accessToken, func() (interface{}, error) {
		if v, ok := r.holders.Get(accessToken); ok {
			return v.(*Holder), nil
		}
		r.holders.DeleteExpired()

		h := NewHolder(r.auth, r.store, r.pending, r.logger, accessToken)
		if err := h.Start(ctx); err != nil {
			h.Close()
			return nil, err
		}
		if !h.SignedIn() {
			h.Close()
			return h, nil
		}
		r.holders.SetDefault(accessToken, h)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Holder), nil
}

// Len is the number of live holders.
func (r *Registry) Len() int {
	return r.holders.ItemCount()
}

// Close closes every holder and stops following auth events.
func (r *Registry) Close() {
	r.unsubscribe()
	for token := range r.holders.Items() {
		r.holders.Delete(token)
	}
}
