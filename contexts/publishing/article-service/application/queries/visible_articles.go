package queries

import (
	"context"
	"log/slog"

	application "scrawl/contexts/publishing/article-service/application"
	"scrawl/contexts/publishing/article-service/domain/entities"
	"scrawl/contexts/publishing/article-service/domain/services"
	"scrawl/contexts/publishing/article-service/ports"
)

// VisibleArticlesUseCase is the visibility engine: it computes the exact
// article set a principal may read by unioning the public, ownership and
// membership reachability paths. An empty PrincipalID means anonymous.
type VisibleArticlesUseCase struct {
	Articles     ports.ArticleRepository
	Memberships  ports.MembershipRepository
	Associations ports.AssociationRepository
	Logger       *slog.Logger
}

// Execute recomputes the visible set from current store state on every
// call; results may be slightly stale under concurrent writes and resolve
// on the next read.
func (u VisibleArticlesUseCase) Execute(ctx context.Context, principalID string) ([]entities.Article, error) {
	public, err := u.Associations.ListPublicVisible(ctx)
	if err != nil {
		return nil, err
	}
	if principalID == "" {
		return services.UnionVisible(public), nil
	}

	own, err := u.Articles.ListByAuthor(ctx, principalID)
	if err != nil {
		return nil, err
	}

	groups, err := u.Memberships.ListGroupsForUser(ctx, principalID)
	if err != nil {
		return nil, err
	}
	var shared []entities.Article
	if len(groups) > 0 {
		groupIDs := make([]string, 0, len(groups))
		for _, group := range groups {
			groupIDs = append(groupIDs, group.ID)
		}
		shared, err = u.Associations.ListVisibleForGroups(ctx, groupIDs)
		if err != nil {
			return nil, err
		}
	}

	visible := services.UnionVisible(public, own, shared)
	application.ResolveLogger(u.Logger).Debug("visible set computed",
		"event", "blog_visible_set_computed",
		"module", "publishing/article-service",
		"layer", "application",
		"principal_id", principalID,
		"article_count", len(visible),
	)
	return visible, nil
}
