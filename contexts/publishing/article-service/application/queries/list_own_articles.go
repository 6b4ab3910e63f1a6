package queries

import (
	"context"
	"log/slog"

	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
	"scrawl/contexts/publishing/article-service/ports"
)

// ListOwnArticlesUseCase lists the caller's live articles.
type ListOwnArticlesUseCase struct {
	Articles ports.ArticleRepository
	Logger   *slog.Logger
}

func (u ListOwnArticlesUseCase) Execute(ctx context.Context, principalID string) ([]entities.Article, error) {
	if principalID == "" {
		return nil, domainerrors.ErrForbidden
	}
	return u.Articles.ListByAuthor(ctx, principalID)
}
