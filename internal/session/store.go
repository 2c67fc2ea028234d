package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"clipbot/internal/services"
)

var (
	// ErrAlreadyExists is returned by Create when the user has a live session.
	ErrAlreadyExists = errors.New("session already exists")
	// ErrNotFound is returned when the user has no live session. It matches
	// services.ErrSessionNotFound.
	ErrNotFound = fmt.Errorf("%w", services.ErrSessionNotFound)
)

// Store holds at most one Session per user. Mutations for one user are
// mutually exclusive; different users never contend beyond the brief map lookup.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	now     func() time.Time
}

type entry struct {
	mu      sync.Mutex
	session Session
	removed bool
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry), now: time.Now}
}

// Create stores a new session for userID.
func (s *Store) Create(userID int64, sess Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[userID]; ok {
		return Session{}, ErrAlreadyExists
	}
	now := s.now()
	sess.UserID = userID
	sess.CreatedAt = now
	sess.UpdatedAt = now
	s.entries[userID] = &entry{session: sess}
	return sess, nil
}

// Get returns a copy of the user's session.
func (s *Store) Get(userID int64) (Session, error) {
	e := s.lookup(userID)
	if e == nil {
		return Session{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Session{}, ErrNotFound
	}
	return e.session, nil
}

// Mutate applies fn to a copy of the user's session under the user's lock and
// commits the copy only when fn returns nil. The committed session is returned.
func (s *Store) Mutate(userID int64, fn func(*Session) error) (Session, error) {
	e := s.lookup(userID)
	if e == nil {
		return Session{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Session{}, ErrNotFound
	}
	working := e.session
	if err := fn(&working); err != nil {
		return e.session, err
	}
	working.UpdatedAt = s.now()
	e.session = working
	return working, nil
}

// Delete removes the user's session, waiting for any in-flight mutation.
// It reports whether a session was removed.
func (s *Store) Delete(userID int64) bool {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if ok {
		delete(s.entries, userID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return true
}

// Expire removes sessions idle since before cutoff that are not processing
// and returns them.
func (s *Store) Expire(cutoff time.Time) []Session {
	s.mu.Lock()
	candidates := make(map[int64]*entry, len(s.entries))
	for id, e := range s.entries {
		candidates[id] = e
	}
	s.mu.Unlock()

	var expired []Session
	for id, e := range candidates {
		e.mu.Lock()
		stale := !e.removed && !e.session.Processing && e.session.UpdatedAt.Before(cutoff)
		if stale {
			e.removed = true
			expired = append(expired, e.session)
		}
		e.mu.Unlock()
		if !stale {
			continue
		}
		s.mu.Lock()
		if s.entries[id] == e {
			delete(s.entries, id)
		}
		s.mu.Unlock()
	}
	return expired
}

// Counts summarises the store for status reporting.
type Counts struct {
	Active     int
	Processing int
}

// Counts returns the number of live and processing sessions.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	var c Counts
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			c.Active++
			if e.session.Processing {
				c.Processing++
			}
		}
		e.mu.Unlock()
	}
	return c
}

func (s *Store) lookup(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[userID]
}
