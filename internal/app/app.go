// Package app assembles repositories, services and the HTTP router from
// configuration. The api, worker and yatubectl binaries all start here.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yatube/yatube/internal/config"
	"github.com/yatube/yatube/internal/handlers"
	"github.com/yatube/yatube/internal/middleware"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/internal/server"
	"github.com/yatube/yatube/internal/services"
	"github.com/yatube/yatube/pkg/cache"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/queue"
	"github.com/yatube/yatube/pkg/storage"
	"gorm.io/gorm"
)

const memoryCacheBytes = 64 << 20

type Services struct {
	Feed         *services.FeedService
	Post         *services.PostService
	Comment      *services.CommentService
	Follow       *services.FollowService
	User         *services.UserService
	Group        *services.GroupService
	Notification *services.NotificationService
}

type Deps struct {
	DB        *gorm.DB
	Pages     *cache.PageCache
	Publisher queue.Publisher
	Media     *storage.MediaStorage
	Logger    *logger.Logger
}

func NewServices(cfg *config.Config, deps Deps) *Services {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}

	userRepo := repository.NewUserRepository(deps.DB)
	groupRepo := repository.NewGroupRepository(deps.DB)
	postRepo := repository.NewPostRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)
	followRepo := repository.NewFollowRepository(deps.DB)
	notificationRepo := repository.NewNotificationRepository(deps.DB)

	pageSize := cfg.Pagination.PageSize
	return &Services{
		Feed:         services.NewFeedService(postRepo, groupRepo, userRepo, followRepo, pageSize, deps.Logger),
		Post:         services.NewPostService(postRepo, groupRepo, commentRepo, deps.Media, publisher, deps.Logger),
		Comment:      services.NewCommentService(postRepo, commentRepo, publisher, deps.Logger),
		Follow:       services.NewFollowService(userRepo, followRepo, publisher, deps.Logger),
		User:         services.NewUserService(userRepo, postRepo, deps.Logger),
		Group:        services.NewGroupService(groupRepo, deps.Logger),
		Notification: services.NewNotificationService(notificationRepo, pageSize, deps.Logger),
	}
}

func JWTConfig(cfg *config.Config) *middleware.JWTConfig {
	return &middleware.JWTConfig{Secret: cfg.JWT.Secret, TTL: cfg.JWT.ExpireTime}
}

// NewRouter builds the HTTP surface over svc.
func NewRouter(cfg *config.Config, svc *Services, deps Deps) *gin.Engine {
	loginURL := cfg.Server.LoginURL
	jwt := JWTConfig(cfg)

	return server.NewRouter(server.Options{
		JWT:         jwt,
		Users:       svc.User,
		Pages:       deps.Pages,
		AuthLimiter: middleware.NewClientLimiter(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst),
		Media:       deps.Media,
		MediaURL:    cfg.Media.URL,
		Logger:      deps.Logger,
	}, server.Handlers{
		Post:         handlers.NewPostHandler(svc.Feed, svc.Post, svc.Comment, deps.Media, loginURL),
		Follow:       handlers.NewFollowHandler(svc.Follow, loginURL),
		Auth:         handlers.NewAuthHandler(svc.User, jwt, loginURL),
		Notification: handlers.NewNotificationHandler(svc.Notification, loginURL),
	})
}

// NewPageStore opens the backing store selected by cache.store. The
// returned close function releases it.
func NewPageStore(ctx context.Context, cfg *config.Config) (cache.Store, func() error, error) {
	switch cfg.Cache.Store {
	case "memory":
		store, err := cache.NewMemoryStore(memoryCacheBytes)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		client := cache.NewRedisClient(
			cfg.Redis.Addr(),
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			cfg.Redis.MinIdleConns,
		)
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return client, client.Close, nil
	}
}

func NewPageCache(store cache.Store, cfg *config.Config) *cache.PageCache {
	return cache.NewPageCache(store, cfg.Cache.Prefix, cfg.Cache.IndexTTL)
}

// NewPublisher returns a Kafka producer, or a publisher that drops events
// when Kafka is disabled.
func NewPublisher(cfg *config.Config) queue.Publisher {
	if !cfg.Kafka.Enabled {
		return queue.NopPublisher{}
	}
	return queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

func NewMediaStorage(cfg *config.Config) *storage.MediaStorage {
	return storage.NewOsMediaStorage(cfg.Media.Root, cfg.Media.URL, cfg.Media.MaxUploadSize)
}
