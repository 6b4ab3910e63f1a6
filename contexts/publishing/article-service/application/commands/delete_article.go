package commands

import (
	"context"
	"log/slog"
	"time"

	application "scrawl/contexts/publishing/article-service/application"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
	"scrawl/contexts/publishing/article-service/ports"
)

// DeleteArticleUseCase soft-deletes an article. The first call sets the
// marker; a repeat call reports not found and performs no write, so
// deletion is idempotent from the caller's perspective but never
// re-triggerable.
type DeleteArticleUseCase struct {
	Articles ports.ArticleRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u DeleteArticleUseCase) Execute(ctx context.Context, principalID string, articleID string) error {
	article, err := loadMutableArticle(ctx, u.Articles, principalID, articleID)
	if err != nil {
		return err
	}

	deleted, err := u.Articles.SoftDelete(ctx, article.ID, u.now())
	if err != nil {
		return err
	}
	if !deleted {
		// A concurrent delete won the race; the row is no longer live.
		return domainerrors.ErrNotFound
	}

	application.ResolveLogger(u.Logger).Info("article soft-deleted",
		"event", "blog_article_deleted",
		"module", "publishing/article-service",
		"layer", "application",
		"article_id", article.ID,
		"author_id", principalID,
	)
	return nil
}

func (u DeleteArticleUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
