package services

import (
	"context"
	"fmt"

	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/queue"
)

type FollowService struct {
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	producer   queue.Publisher
	logger     *logger.Logger
}

func NewFollowService(userRepo *repository.UserRepository, followRepo *repository.FollowRepository, producer queue.Publisher, logger *logger.Logger) *FollowService {
	return &FollowService{
		userRepo:   userRepo,
		followRepo: followRepo,
		producer:   producer,
		logger:     logger,
	}
}

func (s *FollowService) author(ctx context.Context, viewer *models.User, username string) (*models.User, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	if author == nil {
		return nil, ErrNotFound
	}
	return author, nil
}

// Follow makes viewer follow username. Following an author twice leaves a
// single relation. The author is returned alongside ErrFollowSelf so callers
// can still send the user back to the profile.
func (s *FollowService) Follow(ctx context.Context, viewer *models.User, username string) (*models.User, error) {
	author, err := s.author(ctx, viewer, username)
	if err != nil {
		return nil, err
	}
	if author.ID == viewer.ID {
		return author, ErrFollowSelf
	}

	created, err := s.followRepo.Create(ctx, viewer.ID, author.ID)
	if err != nil {
		return nil, err
	}
	if !created {
		return author, nil
	}

	publishEvent(ctx, s.producer, s.logger, viewer.ID, queue.EventFollowCreated, queue.FollowEventData{
		UserID:   viewer.ID,
		AuthorID: author.ID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":   viewer.ID,
		"author_id": author.ID,
	}).Info("User followed successfully")

	return author, nil
}

// Unfollow removes the relation if there is one; a missing relation is not
// an error.
func (s *FollowService) Unfollow(ctx context.Context, viewer *models.User, username string) (*models.User, error) {
	author, err := s.author(ctx, viewer, username)
	if err != nil {
		return nil, err
	}

	deleted, err := s.followRepo.Delete(ctx, viewer.ID, author.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return author, nil
	}

	publishEvent(ctx, s.producer, s.logger, viewer.ID, queue.EventFollowDeleted, queue.FollowEventData{
		UserID:   viewer.ID,
		AuthorID: author.ID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":   viewer.ID,
		"author_id": author.ID,
	}).Info("User unfollowed successfully")

	return author, nil
}
