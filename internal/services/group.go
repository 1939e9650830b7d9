package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/pkg/logger"
)

type GroupInput struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Slug        string `form:"slug" json:"slug" validate:"required,max=50,slug"`
	Description string `form:"description" json:"description"`
}

// GroupService manages groups. Groups are created administratively only.
type GroupService struct {
	groupRepo *repository.GroupRepository
	logger    *logger.Logger
}

func NewGroupService(groupRepo *repository.GroupRepository, logger *logger.Logger) *GroupService {
	return &GroupService{groupRepo: groupRepo, logger: logger}
}

func (s *GroupService) Create(ctx context.Context, input *GroupInput) (*models.Group, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Slug = strings.TrimSpace(input.Slug)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	existing, err := s.groupRepo.GetBySlug(ctx, input.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if existing != nil {
		return nil, newValidationError("slug", "Group with this Slug already exists.").withCause(ErrSlugTaken)
	}

	group := &models.Group{
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"group_id": group.ID,
		"slug":     group.Slug,
	}).Info("Group created successfully")
	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]*models.Group, error) {
	return s.groupRepo.List(ctx)
}
