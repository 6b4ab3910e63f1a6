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

// DeleteGroupUseCase soft-deletes a group. Only the owner may delete.
// Memberships and share associations are left in place; the liveness
// filters on every read path make them go dark immediately, so no
// cascading writes are needed.
type DeleteGroupUseCase struct {
	Groups ports.GroupRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u DeleteGroupUseCase) Execute(ctx context.Context, principalID string, groupID string) error {
	if principalID == "" {
		return domainerrors.ErrForbidden
	}
	if entities.IsPublicGroup(groupID) {
		// The public sentinel is not a stored row.
		return domainerrors.ErrValidation
	}

	group, found, err := u.Groups.FindGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !found || !group.Live() {
		return domainerrors.ErrNotFound
	}
	if group.OwnerID != principalID {
		return domainerrors.ErrForbidden
	}

	deleted, err := u.Groups.SoftDeleteGroup(ctx, group.ID, u.now())
	if err != nil {
		return err
	}
	if !deleted {
		// A concurrent delete won the race; the row is no longer live.
		return domainerrors.ErrNotFound
	}

	application.ResolveLogger(u.Logger).Info("group soft-deleted",
		"event", "blog_group_deleted",
		"module", "publishing/article-service",
		"layer", "application",
		"group_id", group.ID,
		"owner_id", principalID,
	)
	return nil
}

func (u DeleteGroupUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
