package commands

import (
	"context"
	"log/slog"
	"time"

	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
	"scrawl/contexts/publishing/article-service/ports"
)

type JoinGroupUseCase struct {
	Groups      ports.GroupRepository
	Memberships ports.MembershipRepository
	IDs         ports.IDGenerator
	Logger      *slog.Logger
}

func (u JoinGroupUseCase) Execute(ctx context.Context, principalID string, groupID string, writeAllowed bool) (entities.Membership, error) {
	if principalID == "" {
		return entities.Membership{}, domainerrors.ErrForbidden
	}
	if entities.IsPublicGroup(groupID) {
		// Public membership is implicit and never materialized.
		return entities.Membership{}, domainerrors.ErrValidation
	}

	group, found, err := u.Groups.FindGroupByID(ctx, groupID)
	if err != nil {
		return entities.Membership{}, err
	}
	if !found || !group.Live() {
		return entities.Membership{}, domainerrors.ErrNotFound
	}

	existing, found, err := u.Memberships.FindMembership(ctx, principalID, group.ID)
	if err != nil {
		return entities.Membership{}, err
	}
	if found && existing.Live() {
		return entities.Membership{}, domainerrors.ErrConflict
	}

	id, err := u.IDs.NewID(ctx)
	if err != nil {
		return entities.Membership{}, err
	}
	membership := entities.Membership{
		ID:           id,
		UserID:       principalID,
		GroupID:      group.ID,
		WriteAllowed: writeAllowed,
	}
	if err := u.Memberships.InsertMembership(ctx, membership); err != nil {
		return entities.Membership{}, err
	}
	return membership, nil
}

type LeaveGroupUseCase struct {
	Memberships ports.MembershipRepository
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (u LeaveGroupUseCase) Execute(ctx context.Context, principalID string, groupID string) error {
	if principalID == "" {
		return domainerrors.ErrForbidden
	}
	membership, found, err := u.Memberships.FindMembership(ctx, principalID, groupID)
	if err != nil {
		return err
	}
	if !found || !membership.Live() {
		return domainerrors.ErrNotFound
	}
	return u.Memberships.SoftDeleteMembership(ctx, membership.ID, u.now())
}

func (u LeaveGroupUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
