package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yatube/yatube/internal/middleware"
	"github.com/yatube/yatube/internal/services"
)

type FollowHandler struct {
	responder
	followService *services.FollowService
}

func NewFollowHandler(followService *services.FollowService, loginURL string) *FollowHandler {
	return &FollowHandler{
		responder:     responder{loginURL: loginURL},
		followService: followService,
	}
}

func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.followService.Follow(c.Request.Context(), middleware.CurrentUser(c), username); err != nil {
		h.fail(c, err, profileURL(username), nil)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.followService.Unfollow(c.Request.Context(), middleware.CurrentUser(c), username); err != nil {
		h.fail(c, err, profileURL(username), nil)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}
