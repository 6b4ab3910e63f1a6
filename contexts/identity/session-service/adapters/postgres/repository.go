package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainerrors "scrawl/contexts/identity/session-service/domain/errors"
	"scrawl/contexts/identity/session-service/ports"
)

// Repository implements the session and user repositories on postgres.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates the session and user tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userModel{}, &sessionModel{})
}

func (r *Repository) FindByKey(ctx context.Context, key string) (ports.Session, bool, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Session{}, false, nil
		}
		return ports.Session{}, false, r.logError("session_repo_find_by_key_failed", err)
	}
	return row.toSession(), true, nil
}

func (r *Repository) Insert(ctx context.Context, session ports.Session) error {
	row := sessionModelFromSession(session)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("session_repo_insert_failed", create.Error)
	}
	return nil
}

func (r *Repository) UpdateExpiry(ctx context.Context, key string, expiresAt time.Time) error {
	update := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("key = ?", strings.TrimSpace(key)).
		Update("expires_at", expiresAt.UTC())
	if update.Error != nil {
		return r.logError("session_repo_update_expiry_failed", update.Error)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) BindUser(ctx context.Context, key string, userID string) error {
	update := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("key = ?", strings.TrimSpace(key)).
		Update("user_id", strings.TrimSpace(userID))
	if update.Error != nil {
		return r.logError("session_repo_bind_user_failed", update.Error)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	del := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		Delete(&sessionModel{})
	if del.Error != nil {
		return r.logError("session_repo_delete_failed", del.Error)
	}
	return nil
}

func (r *Repository) FindByName(ctx context.Context, username string) (ports.User, bool, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, false, nil
		}
		return ports.User{}, false, r.logError("user_repo_find_by_name_failed", err)
	}
	return row.toUser(), true, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (ports.User, bool, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(id)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, false, nil
		}
		return ports.User{}, false, r.logError("user_repo_find_by_id_failed", err)
	}
	return row.toUser(), true, nil
}

func (r *Repository) InsertUser(ctx context.Context, user ports.User) error {
	row := userModelFromUser(user)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("user_repo_insert_failed", create.Error)
	}
	return nil
}

func (r *Repository) logError(event string, err error) error {
	r.logger.Error("session repository operation failed",
		"event", event,
		"module", "identity/session-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	return fmt.Errorf("%w: %v", domainerrors.ErrStorage, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type userModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	Username     string     `gorm:"column:username;uniqueIndex"`
	DisplayName  string     `gorm:"column:display_name"`
	PasswordHash string     `gorm:"column:password_hash"`
	AvatarURL    string     `gorm:"column:avatar_url"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

func (userModel) TableName() string {
	return "blog_users"
}

func userModelFromUser(user ports.User) userModel {
	return userModel{
		ID:           strings.TrimSpace(user.ID),
		Username:     strings.TrimSpace(user.Username),
		DisplayName:  strings.TrimSpace(user.DisplayName),
		PasswordHash: user.PasswordHash,
		AvatarURL:    strings.TrimSpace(user.AvatarURL),
		DeletedAt:    user.DeletedAt,
	}
}

func (m userModel) toUser() ports.User {
	return ports.User{
		ID:           m.ID,
		Username:     m.Username,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		AvatarURL:    m.AvatarURL,
		DeletedAt:    m.DeletedAt,
	}
}

type sessionModel struct {
	Key       string    `gorm:"column:key;primaryKey"`
	UserID    string    `gorm:"column:user_id"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
}

func (sessionModel) TableName() string {
	return "blog_sessions"
}

func sessionModelFromSession(session ports.Session) sessionModel {
	return sessionModel{
		Key:       session.Key,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt.UTC(),
	}
}

func (m sessionModel) toSession() ports.Session {
	return ports.Session{
		Key:       m.Key,
		UserID:    m.UserID,
		ExpiresAt: m.ExpiresAt.UTC(),
	}
}
