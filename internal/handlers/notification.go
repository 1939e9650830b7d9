package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/yatube/internal/middleware"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/services"
)

type NotificationView struct {
	ID      uint                    `json:"id"`
	Kind    models.NotificationKind `json:"kind"`
	Actor   AuthorView              `json:"actor"`
	PostID  *uint                   `json:"post_id,omitempty"`
	Created time.Time               `json:"created"`
}

type NotificationHandler struct {
	responder
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService, loginURL string) *NotificationHandler {
	return &NotificationHandler{
		responder:           responder{loginURL: loginURL},
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	page, err := h.notificationService.List(c.Request.Context(), middleware.CurrentUser(c), pageNumber(c))
	if err != nil {
		h.fail(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page_obj": newPageView(page, func(n *models.Notification) NotificationView {
			return NotificationView{
				ID:      n.ID,
				Kind:    n.Kind,
				Actor:   newAuthorView(n.Actor),
				PostID:  n.PostID,
				Created: n.CreatedAt,
			}
		}),
	})
}
