package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/queue"
)

type CommentInput struct {
	Text string `form:"text" json:"text" validate:"required"`
}

type CommentService struct {
	postRepo    *repository.PostRepository
	commentRepo *repository.CommentRepository
	producer    queue.Publisher
	logger      *logger.Logger
}

func NewCommentService(postRepo *repository.PostRepository, commentRepo *repository.CommentRepository, producer queue.Publisher, logger *logger.Logger) *CommentService {
	return &CommentService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		producer:    producer,
		logger:      logger,
	}
}

// Add attaches a comment by viewer to the post.
func (s *CommentService) Add(ctx context.Context, viewer *models.User, postID uint, input *CommentInput) (*models.Comment, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}

	input.Text = strings.TrimSpace(input.Text)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: viewer.ID,
		Text:     input.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.Author = *viewer

	publishEvent(ctx, s.producer, s.logger, viewer.ID, queue.EventCommentCreated, queue.CommentEventData{
		CommentID:    comment.ID,
		PostID:       post.ID,
		AuthorID:     viewer.ID,
		PostAuthorID: post.AuthorID,
	})

	s.logger.WithFields(map[string]interface{}{
		"comment_id": comment.ID,
		"post_id":    post.ID,
		"user_id":    viewer.ID,
	}).Info("Comment created successfully")

	return comment, nil
}
