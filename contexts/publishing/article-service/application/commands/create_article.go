package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "scrawl/contexts/publishing/article-service/application"
	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
	"scrawl/contexts/publishing/article-service/ports"
)

// ShareSpec is an optional initial association created with the article.
type ShareSpec struct {
	GroupID string
	Visible bool
}

type CreateArticleCommand struct {
	Title   string
	Content string
	Shares  []ShareSpec
}

type CreateArticleUseCase struct {
	Articles     ports.ArticleRepository
	Groups       ports.GroupRepository
	Memberships  ports.MembershipRepository
	Associations ports.AssociationRepository
	Clock        ports.Clock
	IDs          ports.IDGenerator
	Logger       *slog.Logger
}

func (u CreateArticleUseCase) Execute(ctx context.Context, principalID string, command CreateArticleCommand) (entities.Article, error) {
	if principalID == "" {
		return entities.Article{}, domainerrors.ErrForbidden
	}
	title := strings.TrimSpace(command.Title)
	if title == "" {
		return entities.Article{}, domainerrors.ErrValidation
	}

	// Validate every share target before the first write so a bad target
	// leaves nothing behind.
	for _, share := range command.Shares {
		if err := ensureShareTarget(ctx, u.Groups, u.Memberships, principalID, share.GroupID); err != nil {
			return entities.Article{}, err
		}
	}

	now := u.now()
	id, err := u.IDs.NewID(ctx)
	if err != nil {
		return entities.Article{}, err
	}
	article := entities.Article{
		ID:         id,
		AuthorID:   principalID,
		Title:      title,
		Content:    command.Content,
		PostedAt:   now,
		LastEditAt: now,
		Version:    1,
	}
	if err := u.Articles.Insert(ctx, article); err != nil {
		return entities.Article{}, err
	}

	for _, share := range command.Shares {
		associationID, err := u.IDs.NewID(ctx)
		if err != nil {
			return entities.Article{}, err
		}
		groupID := share.GroupID
		if entities.IsPublicGroup(groupID) {
			groupID = entities.PublicGroupID
		}
		err = u.Associations.InsertAssociation(ctx, entities.Association{
			ID:        associationID,
			ArticleID: article.ID,
			GroupID:   groupID,
			Visible:   share.Visible,
		})
		if err != nil {
			return entities.Article{}, err
		}
	}

	application.ResolveLogger(u.Logger).Info("article created",
		"event", "blog_article_created",
		"module", "publishing/article-service",
		"layer", "application",
		"article_id", article.ID,
		"author_id", principalID,
		"share_count", len(command.Shares),
	)
	return article, nil
}

func (u CreateArticleUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
