package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/paginator"
	"github.com/yatube/yatube/pkg/queue"
)

type NotificationPage = paginator.Page[*models.Notification]

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	pageSize         int
	now              func() time.Time
	logger           *logger.Logger
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, pageSize int, logger *logger.Logger) *NotificationService {
	if pageSize <= 0 {
		pageSize = paginator.DefaultPerPage
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		pageSize:         pageSize,
		now:              func() time.Time { return time.Now().UTC() },
		logger:           logger,
	}
}

// NotifyComment tells the post author about a comment left by someone else.
func (s *NotificationService) NotifyComment(ctx context.Context, data queue.CommentEventData) error {
	if data.AuthorID == data.PostAuthorID {
		return nil
	}
	postID := data.PostID
	n := &models.Notification{
		RecipientID: data.PostAuthorID,
		ActorID:     data.AuthorID,
		Kind:        models.NotificationComment,
		PostID:      &postID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"recipient_id": n.RecipientID,
		"post_id":      postID,
	}).Info("Comment notification created")
	return nil
}

// NotifyFollow tells an author about a new follower.
func (s *NotificationService) NotifyFollow(ctx context.Context, data queue.FollowEventData) error {
	if data.UserID == data.AuthorID {
		return nil
	}
	n := &models.Notification{
		RecipientID: data.AuthorID,
		ActorID:     data.UserID,
		Kind:        models.NotificationFollow,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return err
	}

	s.logger.WithField("recipient_id", n.RecipientID).Info("Follow notification created")
	return nil
}

func (s *NotificationService) List(ctx context.Context, viewer *models.User, page int) (NotificationPage, error) {
	if viewer == nil {
		return NotificationPage{}, ErrUnauthenticated
	}
	items, err := paginator.Fetch(page, s.pageSize,
		func() (int64, error) {
			return s.notificationRepo.CountByRecipient(ctx, viewer.ID)
		},
		func(offset, limit int) ([]*models.Notification, error) {
			return s.notificationRepo.ListByRecipient(ctx, viewer.ID, offset, limit)
		},
	)
	if err != nil {
		return NotificationPage{}, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

// Cleanup deletes notifications older than retention.
func (s *NotificationService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	deleted, err := s.notificationRepo.DeleteOlderThan(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	s.logger.WithField("deleted", deleted).Info("Old notifications cleaned up")
	return deleted, nil
}
