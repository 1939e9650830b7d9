// Package server wires handlers and middleware into the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/yatube/yatube/internal/handlers"
	"github.com/yatube/yatube/internal/middleware"
	"github.com/yatube/yatube/pkg/cache"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/storage"
)

type Handlers struct {
	Post         *handlers.PostHandler
	Follow       *handlers.FollowHandler
	Auth         *handlers.AuthHandler
	Notification *handlers.NotificationHandler
}

type Options struct {
	JWT         *middleware.JWTConfig
	Users       middleware.UserLoader
	Pages       *cache.PageCache
	AuthLimiter *middleware.ClientLimiter
	Media       *storage.MediaStorage
	MediaURL    string
	Logger      *logger.Logger
}

func NewRouter(opts Options, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.NewJWTAuth(opts.JWT, opts.Users))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	if opts.Media != nil && opts.MediaURL != "" {
		router.StaticFS(opts.MediaURL, opts.Media.HTTPFs())
	}

	if opts.Pages != nil {
		router.GET("/", middleware.CachePage(opts.Pages, opts.Logger), h.Post.Index)
	} else {
		router.GET("/", h.Post.Index)
	}
	router.GET("/group/:slug/", h.Post.GroupPosts)
	router.GET("/profile/:username/", h.Post.Profile)
	router.GET("/posts/:post_id/", h.Post.Detail)

	router.GET("/create/", h.Post.CreateForm)
	router.POST("/create/", h.Post.Create)
	router.GET("/posts/:post_id/edit/", h.Post.EditForm)
	router.POST("/posts/:post_id/edit/", h.Post.Edit)
	router.POST("/posts/:post_id/comment/", h.Post.AddComment)

	router.GET("/follow/", h.Post.Following)
	router.GET("/profile/:username/follow/", h.Follow.Follow)
	router.POST("/profile/:username/follow/", h.Follow.Follow)
	router.GET("/profile/:username/unfollow/", h.Follow.Unfollow)
	router.POST("/profile/:username/unfollow/", h.Follow.Unfollow)

	router.GET("/notifications/", h.Notification.List)

	auth := router.Group("/auth")
	if opts.AuthLimiter != nil {
		auth.Use(middleware.RateLimit(opts.AuthLimiter))
	}
	{
		auth.GET("/login/", h.Auth.LoginForm)
		auth.POST("/login/", h.Auth.Login)
		auth.POST("/signup/", h.Auth.Signup)
		auth.GET("/logout/", h.Auth.Logout)
		auth.POST("/logout/", h.Auth.Logout)
		auth.POST("/password_change/", h.Auth.PasswordChange)
	}

	router.NoRoute(handlers.NotFound)

	return router
}
