package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"scrawl/contexts/identity/session-service/adapters/memory"
	domainerrors "scrawl/contexts/identity/session-service/domain/errors"
	"scrawl/contexts/identity/session-service/ports"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type seqKeys struct {
	mu   sync.Mutex
	next int
}

func (k *seqKeys) NewKey(_ context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.next++
	return fmt.Sprintf("key-%d", k.next), nil
}

type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }

func (plainHasher) Compare(hash string, secret string) bool { return hash == "hashed:"+secret }

func newTestService(store *memory.Store, clock *fakeClock) *Service {
	return NewService(store, store, clock, &seqKeys{}, store, plainHasher{}, DefaultWindow, nil)
}

func registerUser(t *testing.T, service *Service, username string, secret string) ports.User {
	t.Helper()
	user, err := service.Register(context.Background(), username, "", secret)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestAcquireCreatesSessionForEmptyKey(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	service := newTestService(memory.NewStore(), clock)

	session, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if session.Key == "" {
		t.Fatal("expected a fresh session key")
	}
	if !session.Anonymous() {
		t.Fatal("fresh session must be anonymous")
	}
	if got, want := session.ExpiresAt, clock.now.Add(DefaultWindow); !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}
}

func TestAcquireSlidesExpiryAndKeepsKey(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	service := newTestService(memory.NewStore(), clock)

	first, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	clock.advance(599 * time.Second)
	second, err := service.Acquire(context.Background(), first.Key)
	if err != nil {
		t.Fatalf("acquire again: %v", err)
	}
	if second.Key != first.Key {
		t.Fatalf("live session must keep its key, got %s want %s", second.Key, first.Key)
	}
	if got, want := second.ExpiresAt, clock.now.Add(DefaultWindow); !got.Equal(want) {
		t.Fatalf("expiry not slid forward: got %v want %v", got, want)
	}
}

func TestAcquireReplacesExpiredSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	service := newTestService(store, clock)

	first, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	clock.advance(600 * time.Second)
	second, err := service.Acquire(context.Background(), first.Key)
	if err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	if second.Key == first.Key {
		t.Fatal("expired session must be replaced under a new key")
	}
	if got := store.SessionCount(); got != 1 {
		t.Fatalf("expired row must be removed, have %d sessions", got)
	}
}

func TestAcquireExpiryIsExclusiveBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	service := newTestService(memory.NewStore(), clock)

	first, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// A session whose expiry equals now is already dead.
	clock.advance(DefaultWindow)
	second, err := service.Acquire(context.Background(), first.Key)
	if err != nil {
		t.Fatalf("acquire at boundary: %v", err)
	}
	if second.Key == first.Key {
		t.Fatal("session expiring exactly now must be treated as expired")
	}
}

func TestAcquireRetriesOnKeyCollision(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	service := newTestService(store, clock)

	// Occupy the first key the sequential generator will mint.
	if err := store.Insert(context.Background(), ports.Session{
		Key:       "key-1",
		ExpiresAt: clock.now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	session, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if session.Key != "key-2" {
		t.Fatalf("expected retry to mint key-2, got %s", session.Key)
	}
}

func TestLoginRequiresLiveSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	service := newTestService(memory.NewStore(), clock)
	registerUser(t, service, "alice", "opensesame")

	if _, err := service.Login(context.Background(), "", "alice", "opensesame"); !errors.Is(err, domainerrors.ErrSessionRequired) {
		t.Fatalf("login with empty key: got %v, want ErrSessionRequired", err)
	}
	if _, err := service.Login(context.Background(), "unknown", "alice", "opensesame"); !errors.Is(err, domainerrors.ErrSessionRequired) {
		t.Fatalf("login with unknown key: got %v, want ErrSessionRequired", err)
	}

	session, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	clock.advance(DefaultWindow + time.Second)
	if _, err := service.Login(context.Background(), session.Key, "alice", "opensesame"); !errors.Is(err, domainerrors.ErrSessionRequired) {
		t.Fatalf("login with expired key: got %v, want ErrSessionRequired", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	service := newTestService(memory.NewStore(), clock)
	registerUser(t, service, "alice", "opensesame")

	session, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if _, err := service.Login(context.Background(), session.Key, "alice", "wrong"); !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		t.Fatalf("wrong secret: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := service.Login(context.Background(), session.Key, "nobody", "opensesame"); !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", err)
	}

	// A failed login leaves the session anonymous.
	if _, ok, err := service.CurrentUser(context.Background(), session); err != nil || ok {
		t.Fatalf("failed login must leave session anonymous, got (%v, %v)", ok, err)
	}
}

func TestLoginRejectsSoftDeletedUser(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	service := newTestService(store, clock)
	user := registerUser(t, service, "alice", "opensesame")
	store.MarkUserDeleted(user.ID, clock.now)

	session, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := service.Login(context.Background(), session.Key, "alice", "opensesame"); !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		t.Fatalf("soft-deleted user with correct secret: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginBindsUserToSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	service := newTestService(memory.NewStore(), clock)
	user := registerUser(t, service, "alice", "opensesame")

	session, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	bound, err := service.Login(context.Background(), session.Key, "alice", "opensesame")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if bound.UserID != user.ID {
		t.Fatalf("bound user = %s, want %s", bound.UserID, user.ID)
	}

	resolved, ok, err := service.CurrentUser(context.Background(), bound)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if !ok || resolved.ID != user.ID {
		t.Fatalf("current user = (%v, %v), want alice", resolved.ID, ok)
	}
}

func TestCurrentUserIgnoresDeletedBinding(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	service := newTestService(store, clock)
	user := registerUser(t, service, "alice", "opensesame")

	session, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	bound, err := service.Login(context.Background(), session.Key, "alice", "opensesame")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	store.MarkUserDeleted(user.ID, clock.now)
	if _, ok, err := service.CurrentUser(context.Background(), bound); err != nil || ok {
		t.Fatalf("deleted user binding: got (%v, %v), want anonymous", ok, err)
	}
}

func TestLogoffDeletesSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	service := newTestService(store, clock)

	session, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := service.Logoff(context.Background(), session.Key); err != nil {
		t.Fatalf("logoff: %v", err)
	}
	if got := store.SessionCount(); got != 0 {
		t.Fatalf("logoff must remove the row, have %d sessions", got)
	}

	// Logoff on an unknown key is a no-op.
	if err := service.Logoff(context.Background(), session.Key); err != nil {
		t.Fatalf("repeated logoff: %v", err)
	}

	replacement, err := service.Acquire(context.Background(), session.Key)
	if err != nil {
		t.Fatalf("acquire after logoff: %v", err)
	}
	if replacement.Key == session.Key {
		t.Fatal("acquire after logoff must mint a new key")
	}
}

func TestRegisterValidatesAndRejectsDuplicates(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	service := newTestService(memory.NewStore(), clock)

	if _, err := service.Register(context.Background(), "", "", "secret"); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("empty username: got %v, want ErrValidation", err)
	}
	if _, err := service.Register(context.Background(), "alice", "", ""); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("empty secret: got %v, want ErrValidation", err)
	}

	user := registerUser(t, service, "alice", "opensesame")
	if user.DisplayName != "alice" {
		t.Fatalf("display name defaults to username, got %s", user.DisplayName)
	}
	if user.PasswordHash == "opensesame" {
		t.Fatal("stored credential must not be the raw secret")
	}

	if _, err := service.Register(context.Background(), "alice", "", "other"); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("duplicate username: got %v, want ErrConflict", err)
	}
}

func TestAcquireConcurrentRenewalsKeepOneSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	service := newTestService(store, clock)

	seed, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	const workers = 32
	const rounds = 25
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				session, err := service.Acquire(context.Background(), seed.Key)
				if err != nil {
					errs <- err
					return
				}
				if session.Key != seed.Key {
					errs <- fmt.Errorf("renewal changed the key to %s", session.Key)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent acquire: %v", err)
	}
	if got := store.SessionCount(); got != 1 {
		t.Fatalf("expected one live session row, got %d", got)
	}
}

func TestConcurrentLoginAndAcquireKeepBinding(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	service := newTestService(store, clock)
	alice := registerUser(t, service, "alice", "opensesame")

	seed, err := service.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	const workers = 16
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if _, err := service.Acquire(context.Background(), seed.Key); err != nil {
					errs <- err
				}
				return
			}
			if _, err := service.Login(context.Background(), seed.Key, "alice", "opensesame"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent login/acquire: %v", err)
	}

	session, found, err := store.FindByKey(context.Background(), seed.Key)
	if err != nil || !found {
		t.Fatalf("session lookup after contention: found=%v err=%v", found, err)
	}
	if session.UserID != alice.ID {
		t.Fatalf("binding lost under contention: got %q want %q", session.UserID, alice.ID)
	}
	if got := store.SessionCount(); got != 1 {
		t.Fatalf("expected one live session row, got %d", got)
	}
}

func TestConcurrentCreatesMintDistinctKeys(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	service := newTestService(store, clock)

	// Occupy the first key the sequential generator will mint so at
	// least one create has to retry under contention.
	if err := store.Insert(context.Background(), ports.Session{
		Key:       "key-1",
		ExpiresAt: clock.now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	const workers = 16
	keys := make(chan string, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := service.Acquire(context.Background(), "")
			if err != nil {
				errs <- err
				return
			}
			keys <- session.Key
		}()
	}
	wg.Wait()
	close(errs)
	close(keys)
	for err := range errs {
		t.Fatalf("concurrent create: %v", err)
	}

	seen := map[string]bool{"key-1": true}
	for key := range keys {
		if key == "" {
			t.Fatal("minted an empty key")
		}
		if seen[key] {
			t.Fatalf("minted a duplicate key %s", key)
		}
		seen[key] = true
	}
	if got := store.SessionCount(); got != workers+1 {
		t.Fatalf("expected %d live session rows, got %d", workers+1, got)
	}
}
