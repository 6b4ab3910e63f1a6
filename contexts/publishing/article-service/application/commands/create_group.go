package commands

import (
	"context"
	"log/slog"
	"strings"

	application "scrawl/contexts/publishing/article-service/application"
	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
	"scrawl/contexts/publishing/article-service/ports"
)

type CreateGroupCommand struct {
	Name        string
	Description string
}

type CreateGroupUseCase struct {
	Groups ports.GroupRepository
	IDs    ports.IDGenerator
	Logger *slog.Logger
}

func (u CreateGroupUseCase) Execute(ctx context.Context, principalID string, command CreateGroupCommand) (entities.Group, error) {
	if principalID == "" {
		return entities.Group{}, domainerrors.ErrForbidden
	}
	name := strings.TrimSpace(command.Name)
	if name == "" || entities.IsPublicGroup(name) {
		// The public group cannot be created by normal flows.
		return entities.Group{}, domainerrors.ErrValidation
	}

	id, err := u.IDs.NewID(ctx)
	if err != nil {
		return entities.Group{}, err
	}
	group := entities.Group{
		ID:          id,
		OwnerID:     principalID,
		Name:        name,
		Description: strings.TrimSpace(command.Description),
	}
	if err := u.Groups.InsertGroup(ctx, group); err != nil {
		return entities.Group{}, err
	}

	application.ResolveLogger(u.Logger).Info("group created",
		"event", "blog_group_created",
		"module", "publishing/article-service",
		"layer", "application",
		"group_id", group.ID,
		"owner_id", principalID,
	)
	return group, nil
}
