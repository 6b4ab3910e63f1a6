package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainerrors "scrawl/contexts/identity/session-service/domain/errors"
	"scrawl/contexts/identity/session-service/ports"
)

// Store is an in-memory implementation of the session and user
// repositories, plus the clock and ID generator ports, for development and
// tests.
type Store struct {
	mu sync.RWMutex

	sessionsByKey map[string]ports.Session
	usersByID     map[string]ports.User
	userIDByName  map[string]string
}

func NewStore() *Store {
	return &Store{
		sessionsByKey: make(map[string]ports.Session),
		usersByID:     make(map[string]ports.User),
		userIDByName:  make(map[string]string),
	}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) FindByKey(ctx context.Context, key string) (ports.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessionsByKey[key]
	return session, ok, nil
}

func (s *Store) Insert(ctx context.Context, session ports.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessionsByKey[session.Key]; exists {
		return domainerrors.ErrConflict
	}
	s.sessionsByKey[session.Key] = session
	return nil
}

func (s *Store) UpdateExpiry(ctx context.Context, key string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessionsByKey[key]
	if !ok {
		return domainerrors.ErrNotFound
	}
	session.ExpiresAt = expiresAt
	s.sessionsByKey[key] = session
	return nil
}

func (s *Store) BindUser(ctx context.Context, key string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessionsByKey[key]
	if !ok {
		return domainerrors.ErrNotFound
	}
	session.UserID = userID
	s.sessionsByKey[key] = session
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessionsByKey, key)
	return nil
}

func (s *Store) FindByName(ctx context.Context, username string) (ports.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userIDByName[username]
	if !ok {
		return ports.User{}, false, nil
	}
	user, ok := s.usersByID[id]
	return user, ok, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (ports.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByID[id]
	return user, ok, nil
}

func (s *Store) InsertUser(ctx context.Context, user ports.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.userIDByName[user.Username]; exists {
		return domainerrors.ErrConflict
	}
	s.usersByID[user.ID] = user
	s.userIDByName[user.Username] = user.ID
	return nil
}

// MarkUserDeleted sets the soft-delete marker on a user. The username stays
// claimed; soft-deleted users are never resurrected.
func (s *Store) MarkUserDeleted(userID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.usersByID[userID]
	if !ok {
		return
	}
	at = at.UTC()
	user.DeletedAt = &at
	s.usersByID[userID] = user
}

// SessionCount reports the number of stored session rows.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessionsByKey)
}
