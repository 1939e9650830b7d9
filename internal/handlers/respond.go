package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yatube/yatube/internal/middleware"
	"github.com/yatube/yatube/internal/services"
)

// responder turns service errors into responses. Nothing a client can
// trigger ends in a panic or an unexplained 5xx.
type responder struct {
	loginURL string
}

// fail answers err. safeURL is where ErrForbidden and ErrFollowSelf send the
// client; input is echoed back on validation failures.
func (r responder) fail(c *gin.Context, err error, safeURL string, input interface{}) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		c.Redirect(http.StatusFound, middleware.LoginRedirectURL(r.loginURL, c.Request.URL.RequestURI()))
	case errors.Is(err, services.ErrNotFound):
		notFound(c)
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrFollowSelf):
		c.Redirect(http.StatusFound, safeURL)
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": verr.Fields,
			"input":  input,
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"__all__": "Please enter a correct username and password."},
			"input":  input,
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (r responder) badForm(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"__all__": err.Error()}})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	notFound(c)
}

// postIDParam reads :post_id. Anything but a positive integer that fits a
// bigint column is a route that does not exist.
func postIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 63)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
