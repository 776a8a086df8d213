package services

import (
	"sync"
	"time"

	"reelsync/internal/core/domain"
)

// CooldownGate tracks a sliding per-(viewer, action) expiry, independent of
// aggregate state. It rejects before the room is ever loaded.
type CooldownGate struct {
	mu      sync.Mutex
	expires map[cooldownKey]time.Time
	ttls    map[string]time.Duration

	now func() time.Time
}

type cooldownKey struct {
	viewerID domain.ViewerID
	action   string
}

// NewCooldownGate builds a gate from per-action windows. Actions without an
// entry (or with a zero window) pass freely.
func NewCooldownGate(ttls map[string]time.Duration) *CooldownGate {
	return &CooldownGate{
		expires: make(map[cooldownKey]time.Time),
		ttls:    ttls,
		now:     time.Now,
	}
}

// Acquire starts the cooldown for (viewerID, action) or fails with a
// CooldownError carrying the remaining time.
func (g *CooldownGate) Acquire(viewerID domain.ViewerID, action string) error {
	ttl := g.ttls[action]
	if ttl <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	key := cooldownKey{viewerID: viewerID, action: action}
	if until, ok := g.expires[key]; ok && now.Before(until) {
		return &domain.CooldownError{Action: action, Remaining: until.Sub(now)}
	}

	g.expires[key] = now.Add(ttl)
	g.evictExpired(now)
	return nil
}

// evictExpired runs under the lock; the map stays bounded by the set of
// viewers active within one window.
func (g *CooldownGate) evictExpired(now time.Time) {
	for key, until := range g.expires {
		if now.After(until) {
			delete(g.expires, key)
		}
	}
}
