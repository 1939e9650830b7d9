package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yatube/yatube/internal/models"
	"gorm.io/gorm"
)

// PostScope narrows a post listing. Scopes compose with List and Count so
// that a page and its total always come from the same filter.
type PostScope func(*gorm.DB) *gorm.DB

func AllPosts() PostScope {
	return func(db *gorm.DB) *gorm.DB { return db }
}

func PostsInGroup(groupID uint) PostScope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("group_id = ?", groupID)
	}
}

func PostsByAuthor(authorID uint) PostScope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id = ?", authorID)
	}
}

// PostsFollowedBy keeps posts whose author userID follows.
func PostsFollowedBy(userID uint) PostScope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id IN (SELECT author_id FROM follows WHERE user_id = ?)", userID)
	}
}

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// List returns one page of posts, newest first. Ties on the timestamp fall
// back to insertion order so pages never overlap.
func (r *PostRepository) List(ctx context.Context, scope PostScope, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Count(ctx context.Context, scope PostScope) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(scope).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

func (r *PostRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return r.Count(ctx, PostsByAuthor(authorID))
}

// UpdateContent rewrites the editable columns only; author and
// creation time are never touched.
func (r *PostRepository) UpdateContent(ctx context.Context, id uint, text string, groupID *uint, image string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"text":     text,
			"group_id": groupID,
			"image":    image,
		}).Error; err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}
