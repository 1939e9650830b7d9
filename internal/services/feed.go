package services

import (
	"context"
	"fmt"

	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/paginator"
)

type PostPage = paginator.Page[*models.Post]

type GroupFeed struct {
	Group *models.Group `json:"group"`
	Page  PostPage      `json:"page"`
}

type ProfileFeed struct {
	Author         *models.User `json:"author"`
	PostCount      int64        `json:"count_posts"`
	FollowersCount int64        `json:"followers_count"`
	FollowingCount int64        `json:"following_count"`
	Following      bool         `json:"following"`
	Page           PostPage     `json:"page"`
}

// FeedService builds the paginated post listings. Every listing is newest
// first and split into pages of pageSize posts.
type FeedService struct {
	postRepo   *repository.PostRepository
	groupRepo  *repository.GroupRepository
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	pageSize   int
	logger     *logger.Logger
}

func NewFeedService(
	postRepo *repository.PostRepository,
	groupRepo *repository.GroupRepository,
	userRepo *repository.UserRepository,
	followRepo *repository.FollowRepository,
	pageSize int,
	logger *logger.Logger,
) *FeedService {
	if pageSize <= 0 {
		pageSize = paginator.DefaultPerPage
	}
	return &FeedService{
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		pageSize:   pageSize,
		logger:     logger,
	}
}

func (s *FeedService) PageSize() int {
	return s.pageSize
}

func (s *FeedService) listPosts(ctx context.Context, scope repository.PostScope, page int) (PostPage, error) {
	return paginator.Fetch(page, s.pageSize,
		func() (int64, error) {
			return s.postRepo.Count(ctx, scope)
		},
		func(offset, limit int) ([]*models.Post, error) {
			return s.postRepo.List(ctx, scope, offset, limit)
		},
	)
}

func (s *FeedService) Index(ctx context.Context, page int) (PostPage, error) {
	posts, err := s.listPosts(ctx, repository.AllPosts(), page)
	if err != nil {
		return PostPage{}, fmt.Errorf("failed to get index: %w", err)
	}
	return posts, nil
}

func (s *FeedService) Group(ctx context.Context, slug string, page int) (*GroupFeed, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}

	posts, err := s.listPosts(ctx, repository.PostsInGroup(group.ID), page)
	if err != nil {
		return nil, fmt.Errorf("failed to get group posts: %w", err)
	}
	return &GroupFeed{Group: group, Page: posts}, nil
}

// Profile lists the author's posts. viewer may be nil; when set, the result
// tells whether the viewer follows the author.
func (s *FeedService) Profile(ctx context.Context, viewer *models.User, username string, page int) (*ProfileFeed, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	if author == nil {
		return nil, ErrNotFound
	}

	posts, err := s.listPosts(ctx, repository.PostsByAuthor(author.ID), page)
	if err != nil {
		return nil, fmt.Errorf("failed to get author posts: %w", err)
	}

	followers, err := s.followRepo.CountFollowers(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	feed := &ProfileFeed{
		Author:         author,
		PostCount:      posts.Count,
		FollowersCount: followers,
		FollowingCount: following,
		Page:           posts,
	}
	if viewer != nil && viewer.ID != author.ID {
		feed.Following, err = s.followRepo.Exists(ctx, viewer.ID, author.ID)
		if err != nil {
			return nil, err
		}
	}
	return feed, nil
}

// Following lists posts by the authors viewer follows.
func (s *FeedService) Following(ctx context.Context, viewer *models.User, page int) (PostPage, error) {
	if viewer == nil {
		return PostPage{}, ErrUnauthenticated
	}

	posts, err := s.listPosts(ctx, repository.PostsFollowedBy(viewer.ID), page)
	if err != nil {
		return PostPage{}, fmt.Errorf("failed to get following feed: %w", err)
	}
	return posts, nil
}
