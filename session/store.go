// Package session provides the in-memory conversation store.
//
// Sessions are keyed by opaque generated ids and expire after a period of
// inactivity. Expiry is enforced lazily on access; a background sweeper is
// available for hygiene but is never required for correctness.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rickchristie/crew"
)

// DefaultTimeout is the inactivity window after which a session expires.
const DefaultTimeout = time.Hour

// Session is a point-in-time snapshot of one conversation. Snapshots are
// copies; mutating one has no effect on the store.
type Session struct {
	ID           string         `json:"id"`
	Created      time.Time      `json:"created"`
	LastAccessed time.Time      `json:"last_accessed"`
	Messages     []crew.Message `json:"messages"`
}

// Summary is the listing form of a session.
type Summary struct {
	ID           string    `json:"id"`
	Created      time.Time `json:"created"`
	LastAccessed time.Time `json:"last_accessed"`
	MessageCount int       `json:"message_count"`
}

type state struct {
	created      time.Time
	lastAccessed time.Time
	messages     []crew.Message
}

// Store holds all live sessions behind one mutex. Every operation is a
// short critical section over in-memory state; the lock never wraps a
// model or network call.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state
	timeout  time.Duration
	clock    crew.TimeProvider
	logger   *zap.Logger
}

// New creates a Store with the given inactivity timeout. A non-positive
// timeout falls back to DefaultTimeout.
func New(timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		sessions: make(map[string]*state),
		timeout:  timeout,
		clock:    crew.NewDefaultTimeProvider(),
		logger:   zap.NewNop(),
	}
}

// WithClock sets the clock used for creation, access stamps and expiry.
func (s *Store) WithClock(clock crew.TimeProvider) *Store {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// WithLogger sets the logger. Default is a nop logger.
func (s *Store) WithLogger(logger *zap.Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Create registers a new empty session and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()
	now := s.clock.Now()

	s.mu.Lock()
	s.sessions[id] = &state{created: now, lastAccessed: now}
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session", id))
	return id
}

// Get returns a snapshot of the session, or nil when the id is unknown or
// the session has sat idle past the timeout. An expired session is evicted
// in the same critical section that detects it, so no caller ever observes
// a stale session. A successful Get refreshes the access stamp.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.locked(id)
	if st == nil {
		return nil
	}
	st.lastAccessed = s.clock.Now()
	return s.snapshot(id, st)
}

// Append adds a message to the session and refreshes its access stamp.
// Returns false when the session is unknown or expired.
func (s *Store) Append(id, role, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.locked(id)
	if st == nil {
		return false
	}
	now := s.clock.Now()
	st.messages = append(st.messages, crew.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	st.lastAccessed = now
	return true
}

// History returns a copy of the session's messages, or nil with ok=false
// when the session is unknown or expired.
func (s *Store) History(id string) ([]crew.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.locked(id)
	if st == nil {
		return nil, false
	}
	st.lastAccessed = s.clock.Now()
	msgs := make([]crew.Message, len(st.messages))
	copy(msgs, st.messages)
	return msgs, true
}

// Clear empties the session's history while keeping the session alive.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.locked(id)
	if st == nil {
		return false
	}
	st.messages = nil
	st.lastAccessed = s.clock.Now()
	return true
}

// Delete removes the session. Returns false when it did not exist.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// List returns summaries of all live sessions. Expired sessions are
// evicted, not listed.
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	out := make([]Summary, 0, len(s.sessions))
	for id, st := range s.sessions {
		if now.Sub(st.lastAccessed) > s.timeout {
			delete(s.sessions, id)
			continue
		}
		out = append(out, Summary{
			ID:           id,
			Created:      st.created,
			LastAccessed: st.lastAccessed,
			MessageCount: len(st.messages),
		})
	}
	return out
}

// Count returns the number of live sessions without evicting anything.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts every expired session and returns how many were removed.
// Purely a hygiene pass; lazy expiry in Get keeps the store correct even
// if Sweep never runs.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for id, st := range s.sessions {
		if now.Sub(st.lastAccessed) > s.timeout {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until the context is
// cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Info("swept expired sessions", zap.Int("removed", n))
				}
			}
		}
	}()
}

// locked returns the live state for id, evicting it first if expired.
// Caller must hold the lock.
func (s *Store) locked(id string) *state {
	st, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.clock.Now().Sub(st.lastAccessed) > s.timeout {
		delete(s.sessions, id)
		s.logger.Debug("session expired", zap.String("session", id))
		return nil
	}
	return st
}

// snapshot copies live state into a caller-owned Session.
func (s *Store) snapshot(id string, st *state) *Session {
	msgs := make([]crew.Message, len(st.messages))
	copy(msgs, st.messages)
	return &Session{
		ID:           id,
		Created:      st.created,
		LastAccessed: st.lastAccessed,
		Messages:     msgs,
	}
}
