package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store holds all live sessions and evicts the ones that have gone unused
// for longer than the configured TTL.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
}

// NewStore creates an empty store. Sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create registers and returns a fresh session.
func (st *Store) Create() *Session {
	s := newSession()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	return s
}

// Get returns the session with the given id, or ErrNotFound.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// PurgeExpired removes every session idle for longer than the TTL and
// returns how many were dropped.
func (st *Store) PurgeExpired() int {
	now := time.Now()

	st.mu.Lock()
	defer st.mu.Unlock()

	purged := 0
	for id, s := range st.sessions {
		if s.expiredAt(now, st.ttl) {
			delete(st.sessions, id)
			purged++
		}
	}
	return purged
}

// Sweep purges expired sessions every interval until ctx is cancelled.
func (st *Store) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.PurgeExpired(); n > 0 {
				slog.Info("Purged expired sessions", "count", n, "remaining", st.Len())
			}
		}
	}
}
