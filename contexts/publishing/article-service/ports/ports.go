package ports

import (
	"context"
	"time"

	"scrawl/contexts/publishing/article-service/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// ArticlePatch is the allow-listed update payload: only the fields declared
// here can change through an edit, and only when the pointer is set.
type ArticlePatch struct {
	Title   *string
	Content *string
}

func (p ArticlePatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

type ArticleRepository interface {
	// FindByID returns the row whether live or soft-deleted; callers decide
	// how deletion surfaces.
	FindByID(ctx context.Context, id string) (entities.Article, bool, error)
	// ListByAuthor returns live articles only.
	ListByAuthor(ctx context.Context, authorID string) ([]entities.Article, error)
	Insert(ctx context.Context, article entities.Article) error
	// Update applies the article's current field values iff the stored row
	// is live and carries expectedVersion; otherwise ErrConflict.
	Update(ctx context.Context, article entities.Article, expectedVersion int64) error
	// SoftDelete marks the row deleted iff it is still live. The bool
	// reports whether a write happened.
	SoftDelete(ctx context.Context, id string, at time.Time) (bool, error)
}

type GroupRepository interface {
	FindGroupByID(ctx context.Context, id string) (entities.Group, bool, error)
	InsertGroup(ctx context.Context, group entities.Group) error
	SoftDeleteGroup(ctx context.Context, id string, at time.Time) (bool, error)
}

type MembershipRepository interface {
	// ListGroupsForUser returns the live groups in which the user holds a
	// live membership. Dangling memberships to soft-deleted groups are
	// excluded.
	ListGroupsForUser(ctx context.Context, userID string) ([]entities.Group, error)
	FindMembership(ctx context.Context, userID string, groupID string) (entities.Membership, bool, error)
	InsertMembership(ctx context.Context, membership entities.Membership) error
	SoftDeleteMembership(ctx context.Context, id string, at time.Time) error
}

type AssociationRepository interface {
	// ListPublicVisible returns every live article holding a live, visible
	// association with the public group.
	ListPublicVisible(ctx context.Context) ([]entities.Article, error)
	// ListVisibleForGroups returns every live article holding a live,
	// visible association with any of the given groups.
	ListVisibleForGroups(ctx context.Context, groupIDs []string) ([]entities.Article, error)
	// ListByArticle returns the live associations of an article.
	ListByArticle(ctx context.Context, articleID string) ([]entities.Association, error)
	FindAssociation(ctx context.Context, articleID string, groupID string) (entities.Association, bool, error)
	InsertAssociation(ctx context.Context, association entities.Association) error
	SetVisible(ctx context.Context, id string, visible bool) error
	SoftDeleteAssociation(ctx context.Context, id string, at time.Time) error
}
