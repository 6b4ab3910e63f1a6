package queries

import (
	"context"
	"log/slog"

	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
	"scrawl/contexts/publishing/article-service/ports"
)

// ArticleShare describes one live association of an article, with the
// group name resolved for display.
type ArticleShare struct {
	GroupID   string
	GroupName string
	Visible   bool
}

// GetArticleUseCase returns a single article iff it belongs to the
// principal's visible set. Absent, soft-deleted and merely invisible
// articles are deliberately indistinguishable: all report not found.
type GetArticleUseCase struct {
	Articles     ports.ArticleRepository
	Groups       ports.GroupRepository
	Memberships  ports.MembershipRepository
	Associations ports.AssociationRepository
	Logger       *slog.Logger
}

func (u GetArticleUseCase) Execute(ctx context.Context, principalID string, articleID string) (entities.Article, []ArticleShare, error) {
	article, found, err := u.Articles.FindByID(ctx, articleID)
	if err != nil {
		return entities.Article{}, nil, err
	}
	if !found || !article.Live() {
		return entities.Article{}, nil, domainerrors.ErrNotFound
	}

	associations, err := u.Associations.ListByArticle(ctx, article.ID)
	if err != nil {
		return entities.Article{}, nil, err
	}

	readable, err := u.readable(ctx, principalID, article, associations)
	if err != nil {
		return entities.Article{}, nil, err
	}
	if !readable {
		return entities.Article{}, nil, domainerrors.ErrNotFound
	}

	shares, err := u.resolveShares(ctx, associations)
	if err != nil {
		return entities.Article{}, nil, err
	}
	return article, shares, nil
}

func (u GetArticleUseCase) readable(ctx context.Context, principalID string, article entities.Article, associations []entities.Association) (bool, error) {
	// Ownership path: authorship always grants read access to one's own
	// live work, with or without associations.
	if principalID != "" && article.AuthorID == principalID {
		return true, nil
	}

	// Public path.
	for _, association := range associations {
		if association.Visible && entities.IsPublicGroup(association.GroupID) {
			return true, nil
		}
	}

	if principalID == "" {
		return false, nil
	}

	// Membership path. ListGroupsForUser already excludes dangling
	// memberships to soft-deleted groups, so an association to a dead
	// group can never match.
	groups, err := u.Memberships.ListGroupsForUser(ctx, principalID)
	if err != nil {
		return false, err
	}
	memberOf := make(map[string]struct{}, len(groups))
	for _, group := range groups {
		memberOf[group.ID] = struct{}{}
	}
	for _, association := range associations {
		if !association.Visible {
			continue
		}
		if _, ok := memberOf[association.GroupID]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (u GetArticleUseCase) resolveShares(ctx context.Context, associations []entities.Association) ([]ArticleShare, error) {
	shares := make([]ArticleShare, 0, len(associations))
	for _, association := range associations {
		if entities.IsPublicGroup(association.GroupID) {
			shares = append(shares, ArticleShare{
				GroupID:   entities.PublicGroupID,
				GroupName: "public",
				Visible:   association.Visible,
			})
			continue
		}
		group, found, err := u.Groups.FindGroupByID(ctx, association.GroupID)
		if err != nil {
			return nil, err
		}
		if !found || !group.Live() {
			// Dangling reference to a soft-deleted group: no access, no
			// listing.
			continue
		}
		shares = append(shares, ArticleShare{
			GroupID:   group.ID,
			GroupName: group.Name,
			Visible:   association.Visible,
		})
	}
	return shares, nil
}
