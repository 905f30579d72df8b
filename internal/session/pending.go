package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"panoproperty_backend/internal/model"
)

// PendingRoles keeps role choices made before a session exists, such as
// across the Google redirect. Entries expire after ttl.
type PendingRoles struct {
	mu    sync.Mutex
	roles *cache.Cache
}

func NewPendingRoles(ttl time.Duration) *PendingRoles {
	return &PendingRoles{roles: cache.New(ttl, ttl)}
}

// Stage records role under key, replacing any earlier choice.
func (p *PendingRoles) Stage(key string, role model.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roles.SetDefault(key, role)
}

// Take returns and clears the role staged under key.
func (p *PendingRoles) Take(key string) (model.Role, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.roles.Get(key)
	if !ok {
		return "", false
	}
	p.roles.Delete(key)
	return v.(model.Role), true
}

// Rekey moves a staged role from one key to another, e.g. from the OAuth
// state to the session it produced.
func (p *PendingRoles) Rekey(from, to string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.roles.Get(from)
	if !ok {
		return false
	}
	p.roles.Delete(from)
	p.roles.SetDefault(to, v)
	return true
}
