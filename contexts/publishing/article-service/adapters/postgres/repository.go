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

	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
)

// Repository implements the publishing repositories on postgres. Soft
// deletion is part of the domain contract, so rows carry plain nullable
// deleted_at columns filtered explicitly instead of gorm's automatic
// DeletedAt scoping.
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

// AutoMigrate creates the publishing tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&articleModel{},
		&groupModel{},
		&membershipModel{},
		&associationModel{},
	)
}

func (r *Repository) FindByID(ctx context.Context, id string) (entities.Article, bool, error) {
	var row articleModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(id)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Article{}, false, nil
		}
		return entities.Article{}, false, r.logError("blog_repo_find_article_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListByAuthor(ctx context.Context, authorID string) ([]entities.Article, error) {
	var rows []articleModel
	err := r.db.WithContext(ctx).
		Where("author_id = ?", strings.TrimSpace(authorID)).
		Where("deleted_at IS NULL").
		Order("posted_at").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("blog_repo_list_by_author_failed", err)
	}
	return toArticleEntities(rows), nil
}

func (r *Repository) Insert(ctx context.Context, article entities.Article) error {
	row := articleModelFromEntity(article)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("blog_repo_insert_article_failed", create.Error)
	}
	return nil
}

// Update is the compare-and-set write: it applies the new field values
// only when the stored row is still live and carries expectedVersion.
func (r *Repository) Update(ctx context.Context, article entities.Article, expectedVersion int64) error {
	update := r.db.WithContext(ctx).
		Model(&articleModel{}).
		Where("id = ? AND version = ? AND deleted_at IS NULL", strings.TrimSpace(article.ID), expectedVersion).
		Updates(map[string]any{
			"title":        article.Title,
			"content":      article.Content,
			"last_edit_at": article.LastEditAt.UTC(),
			"version":      article.Version,
		})
	if update.Error != nil {
		return r.logError("blog_repo_update_article_failed", update.Error)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	update := r.db.WithContext(ctx).
		Model(&articleModel{}).
		Where("id = ? AND deleted_at IS NULL", strings.TrimSpace(id)).
		Update("deleted_at", at.UTC())
	if update.Error != nil {
		return false, r.logError("blog_repo_soft_delete_article_failed", update.Error)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) FindGroupByID(ctx context.Context, id string) (entities.Group, bool, error) {
	var row groupModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(id)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Group{}, false, nil
		}
		return entities.Group{}, false, r.logError("blog_repo_find_group_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) InsertGroup(ctx context.Context, group entities.Group) error {
	row := groupModelFromEntity(group)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("blog_repo_insert_group_failed", create.Error)
	}
	return nil
}

func (r *Repository) SoftDeleteGroup(ctx context.Context, id string, at time.Time) (bool, error) {
	update := r.db.WithContext(ctx).
		Model(&groupModel{}).
		Where("id = ? AND deleted_at IS NULL", strings.TrimSpace(id)).
		Update("deleted_at", at.UTC())
	if update.Error != nil {
		return false, r.logError("blog_repo_soft_delete_group_failed", update.Error)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) ListGroupsForUser(ctx context.Context, userID string) ([]entities.Group, error) {
	var rows []groupModel
	err := r.db.WithContext(ctx).
		Model(&groupModel{}).
		Joins("JOIN blog_memberships ON blog_memberships.group_id = blog_groups.id").
		Where("blog_memberships.user_id = ?", strings.TrimSpace(userID)).
		Where("blog_memberships.deleted_at IS NULL").
		Where("blog_groups.deleted_at IS NULL").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("blog_repo_list_groups_for_user_failed", err)
	}
	groups := make([]entities.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.toEntity())
	}
	return groups, nil
}

func (r *Repository) FindMembership(ctx context.Context, userID string, groupID string) (entities.Membership, bool, error) {
	var row membershipModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", strings.TrimSpace(userID), strings.TrimSpace(groupID)).
		Order("deleted_at IS NOT NULL"). // live row first
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Membership{}, false, nil
		}
		return entities.Membership{}, false, r.logError("blog_repo_find_membership_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) InsertMembership(ctx context.Context, membership entities.Membership) error {
	row := membershipModelFromEntity(membership)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("blog_repo_insert_membership_failed", create.Error)
	}
	return nil
}

func (r *Repository) SoftDeleteMembership(ctx context.Context, id string, at time.Time) error {
	update := r.db.WithContext(ctx).
		Model(&membershipModel{}).
		Where("id = ? AND deleted_at IS NULL", strings.TrimSpace(id)).
		Update("deleted_at", at.UTC())
	if update.Error != nil {
		return r.logError("blog_repo_soft_delete_membership_failed", update.Error)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) ListPublicVisible(ctx context.Context) ([]entities.Article, error) {
	return r.listVisible(ctx, []string{entities.PublicGroupID})
}

func (r *Repository) ListVisibleForGroups(ctx context.Context, groupIDs []string) ([]entities.Article, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	return r.listVisible(ctx, groupIDs)
}

func (r *Repository) listVisible(ctx context.Context, groupIDs []string) ([]entities.Article, error) {
	var rows []articleModel
	err := r.db.WithContext(ctx).
		Model(&articleModel{}).
		Distinct("blog_articles.*").
		Joins("JOIN blog_associations ON blog_associations.article_id = blog_articles.id").
		Where("blog_associations.group_id IN ?", groupIDs).
		Where("blog_associations.visible").
		Where("blog_associations.deleted_at IS NULL").
		Where("blog_articles.deleted_at IS NULL").
		Order("blog_articles.posted_at").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("blog_repo_list_visible_failed", err)
	}
	return toArticleEntities(rows), nil
}

func (r *Repository) ListByArticle(ctx context.Context, articleID string) ([]entities.Association, error) {
	var rows []associationModel
	err := r.db.WithContext(ctx).
		Where("article_id = ?", strings.TrimSpace(articleID)).
		Where("deleted_at IS NULL").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("blog_repo_list_associations_failed", err)
	}
	associations := make([]entities.Association, 0, len(rows))
	for _, row := range rows {
		associations = append(associations, row.toEntity())
	}
	return associations, nil
}

func (r *Repository) FindAssociation(ctx context.Context, articleID string, groupID string) (entities.Association, bool, error) {
	var row associationModel
	err := r.db.WithContext(ctx).
		Where("article_id = ? AND group_id = ?", strings.TrimSpace(articleID), strings.TrimSpace(groupID)).
		Order("deleted_at IS NOT NULL").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Association{}, false, nil
		}
		return entities.Association{}, false, r.logError("blog_repo_find_association_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) InsertAssociation(ctx context.Context, association entities.Association) error {
	row := associationModelFromEntity(association)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("blog_repo_insert_association_failed", create.Error)
	}
	return nil
}

func (r *Repository) SetVisible(ctx context.Context, id string, visible bool) error {
	update := r.db.WithContext(ctx).
		Model(&associationModel{}).
		Where("id = ? AND deleted_at IS NULL", strings.TrimSpace(id)).
		Update("visible", visible)
	if update.Error != nil {
		return r.logError("blog_repo_set_visible_failed", update.Error)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) SoftDeleteAssociation(ctx context.Context, id string, at time.Time) error {
	update := r.db.WithContext(ctx).
		Model(&associationModel{}).
		Where("id = ? AND deleted_at IS NULL", strings.TrimSpace(id)).
		Update("deleted_at", at.UTC())
	if update.Error != nil {
		return r.logError("blog_repo_soft_delete_association_failed", update.Error)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error) error {
	r.logger.Error("blog repository operation failed",
		"event", event,
		"module", "publishing/article-service",
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

type articleModel struct {
	ID         string     `gorm:"column:id;primaryKey"`
	AuthorID   string     `gorm:"column:author_id;index"`
	Title      string     `gorm:"column:title"`
	Content    string     `gorm:"column:content"`
	PostedAt   time.Time  `gorm:"column:posted_at"`
	LastEditAt time.Time  `gorm:"column:last_edit_at"`
	Version    int64      `gorm:"column:version"`
	DeletedAt  *time.Time `gorm:"column:deleted_at"`
}

func (articleModel) TableName() string {
	return "blog_articles"
}

func articleModelFromEntity(article entities.Article) articleModel {
	return articleModel{
		ID:         strings.TrimSpace(article.ID),
		AuthorID:   strings.TrimSpace(article.AuthorID),
		Title:      article.Title,
		Content:    article.Content,
		PostedAt:   article.PostedAt.UTC(),
		LastEditAt: article.LastEditAt.UTC(),
		Version:    article.Version,
		DeletedAt:  article.DeletedAt,
	}
}

func (m articleModel) toEntity() entities.Article {
	return entities.Article{
		ID:         m.ID,
		AuthorID:   m.AuthorID,
		Title:      m.Title,
		Content:    m.Content,
		PostedAt:   m.PostedAt.UTC(),
		LastEditAt: m.LastEditAt.UTC(),
		Version:    m.Version,
		DeletedAt:  m.DeletedAt,
	}
}

func toArticleEntities(rows []articleModel) []entities.Article {
	articles := make([]entities.Article, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, row.toEntity())
	}
	return articles
}

type groupModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	OwnerID     string     `gorm:"column:owner_id;index"`
	Name        string     `gorm:"column:name"`
	Description string     `gorm:"column:description"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
}

func (groupModel) TableName() string {
	return "blog_groups"
}

func groupModelFromEntity(group entities.Group) groupModel {
	return groupModel{
		ID:          strings.TrimSpace(group.ID),
		OwnerID:     strings.TrimSpace(group.OwnerID),
		Name:        strings.TrimSpace(group.Name),
		Description: group.Description,
		DeletedAt:   group.DeletedAt,
	}
}

func (m groupModel) toEntity() entities.Group {
	return entities.Group{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		DeletedAt:   m.DeletedAt,
	}
}

type membershipModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	UserID       string     `gorm:"column:user_id;index:idx_membership_pair"`
	GroupID      string     `gorm:"column:group_id;index:idx_membership_pair"`
	WriteAllowed bool       `gorm:"column:write_allowed"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

func (membershipModel) TableName() string {
	return "blog_memberships"
}

func membershipModelFromEntity(membership entities.Membership) membershipModel {
	return membershipModel{
		ID:           strings.TrimSpace(membership.ID),
		UserID:       strings.TrimSpace(membership.UserID),
		GroupID:      strings.TrimSpace(membership.GroupID),
		WriteAllowed: membership.WriteAllowed,
		DeletedAt:    membership.DeletedAt,
	}
}

func (m membershipModel) toEntity() entities.Membership {
	return entities.Membership{
		ID:           m.ID,
		UserID:       m.UserID,
		GroupID:      m.GroupID,
		WriteAllowed: m.WriteAllowed,
		DeletedAt:    m.DeletedAt,
	}
}

type associationModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	ArticleID string     `gorm:"column:article_id;index:idx_association_pair"`
	GroupID   string     `gorm:"column:group_id;index:idx_association_pair"`
	Visible   bool       `gorm:"column:visible"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

func (associationModel) TableName() string {
	return "blog_associations"
}

func associationModelFromEntity(association entities.Association) associationModel {
	return associationModel{
		ID:        strings.TrimSpace(association.ID),
		ArticleID: strings.TrimSpace(association.ArticleID),
		GroupID:   strings.TrimSpace(association.GroupID),
		Visible:   association.Visible,
		DeletedAt: association.DeletedAt,
	}
}

func (m associationModel) toEntity() entities.Association {
	return entities.Association{
		ID:        m.ID,
		ArticleID: m.ArticleID,
		GroupID:   m.GroupID,
		Visible:   m.Visible,
		DeletedAt: m.DeletedAt,
	}
}
