package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// SessionRegistry is the in-memory session store. A locked map is
// deliberate: sessions are per-instance state that dies with the process,
// and the registry must answer on every request without leaving it.
//
// Expiry is lazy. Reads drop expired entries as they notice them; Run adds
// a periodic sweep so abandoned sessions do not pile up between reads.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	now      func() time.Time
	log      zerolog.Logger
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry(log zerolog.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
		log:      log,
	}
}

// Register stores a session under its id, replacing any previous entry.
func (r *SessionRegistry) Register(s domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session if present and unexpired. An expired entry is
// removed on the way out.
func (r *SessionRegistry) Get(id string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	if s.Expired(r.now()) {
		delete(r.sessions, id)
		return domain.Session{}, false
	}
	return s, true
}

// IsValid reports whether a session exists and is unexpired.
func (r *SessionRegistry) IsValid(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// ListActive snapshots all live sessions, dropping expired ones.
func (r *SessionRegistry) ListActive() []domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make([]domain.Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Revoke removes a session. Revoking an expired or unknown id reports
// false; the expired entry is still dropped.
func (r *SessionRegistry) Revoke(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	delete(r.sessions, id)
	return !s.Expired(r.now())
}

// RevokeAll clears the registry and returns how many live sessions fell.
func (r *SessionRegistry) RevokeAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	live := 0
	for _, s := range r.sessions {
		if !s.Expired(now) {
			live++
		}
	}
	r.sessions = make(map[string]domain.Session)
	return live
}

// RevokeByUser removes every session belonging to the user and returns how
// many live ones fell.
func (r *SessionRegistry) RevokeByUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	live := 0
	for id, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if !s.Expired(now) {
			live++
		}
		delete(r.sessions, id)
	}
	return live
}

// ActiveCount returns the number of live sessions without mutating the
// registry. Feeds the sessions gauge.
func (r *SessionRegistry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	live := 0
	for _, s := range r.sessions {
		if !s.Expired(now) {
			live++
		}
	}
	return live
}

// Run sweeps expired sessions at the given interval until ctx is
// cancelled. Lazy expiry keeps answers correct on its own; the sweep only
// bounds memory held by sessions nobody reads anymore.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.sweep(); n > 0 {
				r.log.Debug().Int("swept", n).Msg("expired sessions removed")
			}
		}
	}
}

func (r *SessionRegistry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
