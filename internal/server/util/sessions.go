package util

import (
	"sync"
	"time"

	"github.com/graphaura/backend/internal/util"
	"github.com/graphaura/backend/pkg/viewstate"
)

// SessionRegistry holds the per-client view-state stores. Each connected
// visualization gets its own store keyed by an opaque session id.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	maxIdle  time.Duration
}

type sessionEntry struct {
	store    *viewstate.Store
	lastUsed time.Time
}

// NewSessionRegistry creates a registry. Sessions idle longer than maxIdle
// are dropped lazily on the next sweep; maxIdle <= 0 disables expiry.
func NewSessionRegistry(maxIdle time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: map[string]*sessionEntry{},
		maxIdle:  maxIdle,
	}
}

// Create registers a fresh view-state store and returns its session id.
func (r *SessionRegistry) Create() string {
	id := util.NewID()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.sessions[id] = &sessionEntry{
		store:    viewstate.New(),
		lastUsed: time.Now(),
	}
	return id
}

// Get returns the store for a session, or nil when the session is unknown
// or expired.
func (r *SessionRegistry) Get(id string) *viewstate.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	entry, ok := r.sessions[id]
	if !ok {
		return nil
	}
	entry.lastUsed = time.Now()
	return entry.store
}

// Delete removes a session. Unknown ids are a no-op.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.sessions)
}

func (r *SessionRegistry) sweepLocked() {
	if r.maxIdle <= 0 {
		return
	}
	cutoff := time.Now().Add(-r.maxIdle)
	for id, entry := range r.sessions {
		if entry.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
