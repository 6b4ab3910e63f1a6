package commands

import (
	"context"
	"log/slog"
	"time"

	application "scrawl/contexts/publishing/article-service/application"
	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
	"scrawl/contexts/publishing/article-service/ports"
)

// ShareArticleUseCase creates or updates the association between an
// article and a group. Only the author may share; sharing into a stored
// group additionally requires ownership or a write-allowed membership.
type ShareArticleUseCase struct {
	Articles     ports.ArticleRepository
	Groups       ports.GroupRepository
	Memberships  ports.MembershipRepository
	Associations ports.AssociationRepository
	IDs          ports.IDGenerator
	Logger       *slog.Logger
}

func (u ShareArticleUseCase) Execute(ctx context.Context, principalID string, articleID string, groupID string, visible bool) (entities.Association, error) {
	article, err := loadMutableArticle(ctx, u.Articles, principalID, articleID)
	if err != nil {
		return entities.Association{}, err
	}
	if err := ensureShareTarget(ctx, u.Groups, u.Memberships, principalID, groupID); err != nil {
		return entities.Association{}, err
	}
	if entities.IsPublicGroup(groupID) {
		groupID = entities.PublicGroupID
	}

	existing, found, err := u.Associations.FindAssociation(ctx, article.ID, groupID)
	if err != nil {
		return entities.Association{}, err
	}
	if found && existing.Live() {
		if existing.Visible != visible {
			if err := u.Associations.SetVisible(ctx, existing.ID, visible); err != nil {
				return entities.Association{}, err
			}
			existing.Visible = visible
		}
		return existing, nil
	}

	id, err := u.IDs.NewID(ctx)
	if err != nil {
		return entities.Association{}, err
	}
	association := entities.Association{
		ID:        id,
		ArticleID: article.ID,
		GroupID:   groupID,
		Visible:   visible,
	}
	if err := u.Associations.InsertAssociation(ctx, association); err != nil {
		return entities.Association{}, err
	}

	application.ResolveLogger(u.Logger).Info("article shared",
		"event", "blog_article_shared",
		"module", "publishing/article-service",
		"layer", "application",
		"article_id", article.ID,
		"group_id", groupID,
		"visible", visible,
	)
	return association, nil
}

// RevokeShareUseCase soft-deletes the association between an article and a
// group, withdrawing the visibility it granted without touching the
// article itself.
type RevokeShareUseCase struct {
	Articles     ports.ArticleRepository
	Associations ports.AssociationRepository
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (u RevokeShareUseCase) Execute(ctx context.Context, principalID string, articleID string, groupID string) error {
	article, err := loadMutableArticle(ctx, u.Articles, principalID, articleID)
	if err != nil {
		return err
	}
	if entities.IsPublicGroup(groupID) {
		groupID = entities.PublicGroupID
	}

	association, found, err := u.Associations.FindAssociation(ctx, article.ID, groupID)
	if err != nil {
		return err
	}
	if !found || !association.Live() {
		return domainerrors.ErrNotFound
	}
	return u.Associations.SoftDeleteAssociation(ctx, association.ID, u.now())
}

func (u RevokeShareUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
