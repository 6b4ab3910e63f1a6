package ports

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// KeyGenerator mints opaque session keys. Keys must be practically unique
// under concurrent creation; the repository still enforces uniqueness and
// callers retry on conflict.
type KeyGenerator interface {
	NewKey(ctx context.Context) (string, error)
}

// CredentialHasher is the one-way comparator used by the credential
// verifier. Compare must run in constant time.
type CredentialHasher interface {
	Hash(secret string) (string, error)
	Compare(hash string, secret string) bool
}

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

func (u User) Live() bool {
	return u.DeletedAt == nil
}

// Session rows are hard-deleted, never soft-deleted. An empty UserID means
// the session is anonymous.
type Session struct {
	Key       string
	UserID    string
	ExpiresAt time.Time
}

func (s Session) Anonymous() bool {
	return s.UserID == ""
}

// LiveAt reports whether the session is still usable: expiry strictly in
// the future.
func (s Session) LiveAt(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

type UserRepository interface {
	FindByName(ctx context.Context, username string) (User, bool, error)
	FindByID(ctx context.Context, id string) (User, bool, error)
	// InsertUser fails with ErrConflict when the username is taken.
	InsertUser(ctx context.Context, user User) error
}

type SessionRepository interface {
	FindByKey(ctx context.Context, key string) (Session, bool, error)
	// Insert fails with ErrConflict when the key already exists.
	Insert(ctx context.Context, session Session) error
	UpdateExpiry(ctx context.Context, key string, expiresAt time.Time) error
	BindUser(ctx context.Context, key string, userID string) error
	// Delete is idempotent; removing an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
