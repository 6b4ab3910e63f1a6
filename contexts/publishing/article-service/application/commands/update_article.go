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

// UpdateArticleUseCase applies an allow-listed partial update. The patch is
// validated before any write and applied all-or-nothing through a
// compare-and-set on the row version. LastEditAt moves only when the
// stored title or content actually changes; a no-op patch succeeds without
// touching the row.
type UpdateArticleUseCase struct {
	Articles ports.ArticleRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u UpdateArticleUseCase) Execute(ctx context.Context, principalID string, articleID string, patch ports.ArticlePatch) (entities.Article, error) {
	article, err := loadMutableArticle(ctx, u.Articles, principalID, articleID)
	if err != nil {
		return entities.Article{}, err
	}
	if patch.Empty() {
		return article, nil
	}
	if patch.Title != nil && *patch.Title == "" {
		return entities.Article{}, domainerrors.ErrValidation
	}

	dirty := false
	if patch.Title != nil && *patch.Title != article.Title {
		article.Title = *patch.Title
		dirty = true
	}
	if patch.Content != nil && *patch.Content != article.Content {
		article.Content = *patch.Content
		dirty = true
	}
	if !dirty {
		return article, nil
	}

	expectedVersion := article.Version
	article.LastEditAt = u.now()
	article.Version = expectedVersion + 1
	if err := u.Articles.Update(ctx, article, expectedVersion); err != nil {
		return entities.Article{}, err
	}

	application.ResolveLogger(u.Logger).Info("article updated",
		"event", "blog_article_updated",
		"module", "publishing/article-service",
		"layer", "application",
		"article_id", article.ID,
		"author_id", principalID,
	)
	return article, nil
}

func (u UpdateArticleUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
