package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/queue"
	"github.com/yatube/yatube/pkg/storage"
)

const postImageDir = "posts"

// PostInput is the submitted post form. Image is optional; when nil on
// edit the stored image is kept.
type PostInput struct {
	Text  string    `form:"text" json:"text" validate:"required"`
	Group uint      `form:"group" json:"group"`
	Image io.Reader `form:"-" json:"-"`
}

type PostDetail struct {
	Post            *models.Post      `json:"post"`
	AuthorPostCount int64             `json:"author_post_count"`
	CommentCount    int64             `json:"comment_count"`
	Comments        []*models.Comment `json:"comments"`
}

type PostForm struct {
	Groups []*models.Group `json:"groups"`
	Post   *models.Post    `json:"post,omitempty"`
	IsEdit bool            `json:"is_edit"`
}

type PostService struct {
	postRepo    *repository.PostRepository
	groupRepo   *repository.GroupRepository
	commentRepo *repository.CommentRepository
	media       *storage.MediaStorage
	producer    queue.Publisher
	logger      *logger.Logger
}

func NewPostService(
	postRepo *repository.PostRepository,
	groupRepo *repository.GroupRepository,
	commentRepo *repository.CommentRepository,
	media *storage.MediaStorage,
	producer queue.Publisher,
	logger *logger.Logger,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		commentRepo: commentRepo,
		media:       media,
		producer:    producer,
		logger:      logger,
	}
}

func (s *PostService) Detail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}

	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	commentCount, err := s.commentRepo.CountByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	authorPosts, err := s.postRepo.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}

	return &PostDetail{
		Post:            post,
		AuthorPostCount: authorPosts,
		CommentCount:    commentCount,
		Comments:        comments,
	}, nil
}

func (s *PostService) CreateForm(ctx context.Context, viewer *models.User) (*PostForm, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &PostForm{Groups: groups}, nil
}

func (s *PostService) EditForm(ctx context.Context, viewer *models.User, postID uint) (*PostForm, error) {
	post, err := s.editable(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &PostForm{Groups: groups, Post: post, IsEdit: true}, nil
}

// editable loads the post and checks that viewer may change it.
func (s *PostService) editable(ctx context.Context, viewer *models.User, postID uint) (*models.Post, error) {
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
	if post.AuthorID != viewer.ID {
		return nil, ErrForbidden
	}
	return post, nil
}

// cleanInput validates the form and resolves the group. It returns the
// group id to store, nil meaning no group.
func (s *PostService) cleanInput(ctx context.Context, input *PostInput) (*uint, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.Group == 0 {
		return nil, nil
	}

	group, err := s.groupRepo.GetByID(ctx, input.Group)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, newValidationError("group", "Select a valid choice. That choice is not one of the available choices.")
	}
	return lo.ToPtr(group.ID), nil
}

func (s *PostService) saveImage(ctx context.Context, image io.Reader) (string, error) {
	if s.media == nil {
		return "", newValidationError("image", "Image uploads are disabled.")
	}
	name, err := s.media.SaveImage(ctx, postImageDir, image)
	switch {
	case errors.Is(err, storage.ErrNotImage):
		return "", newValidationError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.").withCause(err)
	case errors.Is(err, storage.ErrTooLarge):
		return "", newValidationError("image", "The uploaded file is too large.").withCause(err)
	case err != nil:
		return "", err
	}
	return name, nil
}

// discardImage removes an upload whose post was never written.
func (s *PostService) discardImage(name string) {
	if name == "" || s.media == nil {
		return
	}
	if err := s.media.Remove(name); err != nil {
		s.logger.WithError(err).WithField("image", name).Warn("Failed to remove orphaned image")
	}
}

// Create stores a new post authored by viewer.
func (s *PostService) Create(ctx context.Context, viewer *models.User, input *PostInput) (*models.Post, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}

	groupID, err := s.cleanInput(ctx, input)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     input.Text,
		AuthorID: viewer.ID,
		GroupID:  groupID,
	}
	if input.Image != nil {
		if post.Image, err = s.saveImage(ctx, input.Image); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discardImage(post.Image)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	post.Author = *viewer

	publishEvent(ctx, s.producer, s.logger, viewer.ID, queue.EventPostCreated, queue.PostEventData{
		PostID:   post.ID,
		AuthorID: post.AuthorID,
		GroupID:  post.GroupID,
	})

	s.logger.WithFields(map[string]interface{}{
		"post_id": post.ID,
		"user_id": viewer.ID,
	}).Info("Post created successfully")

	return post, nil
}

// Edit replaces text, group and (when given) image of a post owned by
// viewer. Author and creation time are left as they were.
func (s *PostService) Edit(ctx context.Context, viewer *models.User, postID uint, input *PostInput) (*models.Post, error) {
	post, err := s.editable(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}

	groupID, err := s.cleanInput(ctx, input)
	if err != nil {
		return nil, err
	}

	image := post.Image
	if input.Image != nil {
		if image, err = s.saveImage(ctx, input.Image); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.UpdateContent(ctx, post.ID, input.Text, groupID, image); err != nil {
		if image != post.Image {
			s.discardImage(image)
		}
		return nil, fmt.Errorf("failed to edit post: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, viewer.ID, queue.EventPostEdited, queue.PostEventData{
		PostID:   post.ID,
		AuthorID: post.AuthorID,
		GroupID:  groupID,
	})

	s.logger.WithFields(map[string]interface{}{
		"post_id": post.ID,
		"user_id": viewer.ID,
	}).Info("Post edited successfully")

	return s.postRepo.GetByID(ctx, post.ID)
}
