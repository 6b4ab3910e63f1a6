package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "scrawl/contexts/identity/session-service/domain/errors"
	"scrawl/contexts/identity/session-service/ports"
)

// DefaultWindow is the server-side sliding expiration window.
const DefaultWindow = 600 * time.Second

// keyRetryLimit bounds retries when a freshly minted key collides with an
// existing row.
const keyRetryLimit = 5

// Service owns session identity, expiration, sliding renewal and the
// binding of a session to an authenticated user.
type Service struct {
	Sessions ports.SessionRepository
	Users    ports.UserRepository
	Clock    ports.Clock
	Keys     ports.KeyGenerator
	IDs      ports.IDGenerator
	Hasher   ports.CredentialHasher
	Window   time.Duration
	Logger   *slog.Logger

	locks keyedMutex
}

func NewService(
	sessions ports.SessionRepository,
	users ports.UserRepository,
	clock ports.Clock,
	keys ports.KeyGenerator,
	ids ports.IDGenerator,
	hasher ports.CredentialHasher,
	window time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		Sessions: sessions,
		Users:    users,
		Clock:    clock,
		Keys:     keys,
		IDs:      ids,
		Hasher:   hasher,
		Window:   window,
		Logger:   logger,
	}
}

// Acquire resolves a presented session key to a live session. An empty or
// unknown key yields a fresh anonymous session. A live key gets its expiry
// pushed forward (sliding window). An expired key is hard-deleted and
// replaced under a new key, so the client-visible token changes on expiry.
func (s *Service) Acquire(ctx context.Context, key string) (ports.Session, error) {
	key = strings.TrimSpace(key)
	now := s.now()

	if key != "" {
		unlock := s.locks.lock(key)
		defer unlock()

		session, found, err := s.Sessions.FindByKey(ctx, key)
		if err != nil {
			return ports.Session{}, err
		}
		if found {
			if session.LiveAt(now) {
				session.ExpiresAt = now.Add(s.window())
				if err := s.Sessions.UpdateExpiry(ctx, session.Key, session.ExpiresAt); err != nil {
					return ports.Session{}, err
				}
				return session, nil
			}
			// Expired rows are functionally absent. Remove and fall
			// through to creation, which mints a new key.
			if err := s.Sessions.Delete(ctx, key); err != nil {
				return ports.Session{}, err
			}
			ResolveLogger(s.Logger).Debug("expired session replaced",
				"event", "session_expired_replaced",
				"module", "identity/session-service",
				"layer", "application",
			)
		}
	}

	return s.create(ctx, now)
}

func (s *Service) create(ctx context.Context, now time.Time) (ports.Session, error) {
	for attempt := 0; attempt < keyRetryLimit; attempt++ {
		key, err := s.Keys.NewKey(ctx)
		if err != nil {
			return ports.Session{}, err
		}
		session := ports.Session{
			Key:       key,
			ExpiresAt: now.Add(s.window()),
		}
		err = s.Sessions.Insert(ctx, session)
		if errors.Is(err, domainerrors.ErrConflict) {
			continue
		}
		if err != nil {
			return ports.Session{}, err
		}
		return session, nil
	}
	return ports.Session{}, fmt.Errorf("%w: session key collisions exhausted retries", domainerrors.ErrConflict)
}

// Verify is the credential verifier: it checks a presented secret against
// the stored credential of a live user. It has no side effects.
func (s *Service) Verify(ctx context.Context, username string, secret string) (ports.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" {
		return ports.User{}, domainerrors.ErrInvalidCredentials
	}
	user, found, err := s.Users.FindByName(ctx, username)
	if err != nil {
		return ports.User{}, err
	}
	if !found || !user.Live() {
		return ports.User{}, domainerrors.ErrInvalidCredentials
	}
	if !s.Hasher.Compare(user.PasswordHash, secret) {
		return ports.User{}, domainerrors.ErrInvalidCredentials
	}
	return user, nil
}

// Login binds the user identified by the credentials to the session behind
// key. On any failure the session's user binding is left untouched.
func (s *Service) Login(ctx context.Context, key string, username string, secret string) (ports.Session, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return ports.Session{}, domainerrors.ErrSessionRequired
	}

	unlock := s.locks.lock(key)
	defer unlock()

	session, found, err := s.Sessions.FindByKey(ctx, key)
	if err != nil {
		return ports.Session{}, err
	}
	if !found || !session.LiveAt(s.now()) {
		return ports.Session{}, domainerrors.ErrSessionRequired
	}

	user, err := s.Verify(ctx, username, secret)
	if err != nil {
		return ports.Session{}, err
	}

	if err := s.Sessions.BindUser(ctx, session.Key, user.ID); err != nil {
		return ports.Session{}, err
	}
	session.UserID = user.ID

	ResolveLogger(s.Logger).Info("session bound to user",
		"event", "session_login_succeeded",
		"module", "identity/session-service",
		"layer", "application",
		"user_id", user.ID,
	)
	return session, nil
}

// Logoff hard-deletes the session row. The caller is responsible for
// invalidating the client-held token.
func (s *Service) Logoff(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	unlock := s.locks.lock(key)
	defer unlock()
	return s.Sessions.Delete(ctx, key)
}

// CurrentUser resolves the principal behind a session: the bound live user,
// or none for anonymous sessions. A binding to a user that was soft-deleted
// afterwards resolves to none.
func (s *Service) CurrentUser(ctx context.Context, session ports.Session) (ports.User, bool, error) {
	if session.Anonymous() {
		return ports.User{}, false, nil
	}
	user, found, err := s.Users.FindByID(ctx, session.UserID)
	if err != nil {
		return ports.User{}, false, err
	}
	if !found || !user.Live() {
		return ports.User{}, false, nil
	}
	return user, true, nil
}

// Register creates a live user with a hashed credential.
func (s *Service) Register(ctx context.Context, username string, displayName string, secret string) (ports.User, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	if username == "" || secret == "" {
		return ports.User{}, domainerrors.ErrValidation
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := s.Hasher.Hash(secret)
	if err != nil {
		return ports.User{}, err
	}
	id, err := s.IDs.NewID(ctx)
	if err != nil {
		return ports.User{}, err
	}

	user := ports.User{
		ID:           id,
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
	}
	if err := s.Users.InsertUser(ctx, user); err != nil {
		return ports.User{}, err
	}
	return user, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *Service) window() time.Duration {
	if s.Window <= 0 {
		return DefaultWindow
	}
	return s.Window
}
