package commands

import (
	"context"

	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
	"scrawl/contexts/publishing/article-service/domain/services"
	"scrawl/contexts/publishing/article-service/ports"
)

// loadMutableArticle is the authorization gate for article mutations: the
// article must exist and be live (otherwise not found, indistinguishable
// from absent), and the principal must be its authenticated author
// (otherwise forbidden).
func loadMutableArticle(
	ctx context.Context,
	articles ports.ArticleRepository,
	principalID string,
	articleID string,
) (entities.Article, error) {
	article, found, err := articles.FindByID(ctx, articleID)
	if err != nil {
		return entities.Article{}, err
	}
	if !found || !article.Live() {
		return entities.Article{}, domainerrors.ErrNotFound
	}
	if !services.CanMutate(principalID, article) {
		return entities.Article{}, domainerrors.ErrForbidden
	}
	return article, nil
}

// ensureShareTarget validates that principalID may share articles into the
// group: the public sentinel is open to every author, a stored group
// requires ownership or a live write-allowed membership.
func ensureShareTarget(
	ctx context.Context,
	groups ports.GroupRepository,
	memberships ports.MembershipRepository,
	principalID string,
	groupID string,
) error {
	if entities.IsPublicGroup(groupID) {
		return nil
	}
	group, found, err := groups.FindGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !found || !group.Live() {
		return domainerrors.ErrNotFound
	}
	if group.OwnerID == principalID {
		return nil
	}
	membership, found, err := memberships.FindMembership(ctx, principalID, group.ID)
	if err != nil {
		return err
	}
	if found && membership.Live() && membership.WriteAllowed {
		return nil
	}
	return domainerrors.ErrForbidden
}
