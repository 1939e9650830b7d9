package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yatube/yatube/internal/middleware"
	"github.com/yatube/yatube/internal/services"
)

type AuthHandler struct {
	responder
	userService *services.UserService
	jwt         *middleware.JWTConfig
}

func NewAuthHandler(userService *services.UserService, jwt *middleware.JWTConfig, loginURL string) *AuthHandler {
	return &AuthHandler{
		responder:   responder{loginURL: loginURL},
		userService: userService,
		jwt:         jwt,
	}
}

// safeNext accepts only local absolute paths as redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

func (h *AuthHandler) setToken(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.jwt.TTL.Seconds()), "/", "", false, true)
}

// LoginForm is the login entry point anonymous clients are redirected to.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"next":   safeNext(c.Query("next")),
		"fields": []string{"username", "password"},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		h.badForm(c, err)
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, err, "", gin.H{"username": input.Username})
		return
	}

	token, err := middleware.GenerateToken(user, h.jwt)
	if err != nil {
		h.fail(c, err, "", nil)
		return
	}
	h.setToken(c, token)

	next := safeNext(c.Query("next"))
	if next == "" {
		next = safeNext(c.PostForm("next"))
	}
	if next != "" {
		c.Redirect(http.StatusFound, next)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    newAuthorView(*user),
	})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBind(&input); err != nil {
		h.badForm(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, err, "", gin.H{
			"username":   input.Username,
			"email":      input.Email,
			"first_name": input.FirstName,
			"last_name":  input.LastName,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    newAuthorView(*user),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) PasswordChange(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	if viewer == nil {
		h.fail(c, services.ErrUnauthenticated, "", nil)
		return
	}

	var input services.PasswordChangeInput
	if err := c.ShouldBind(&input); err != nil {
		h.badForm(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), viewer, &input); err != nil {
		h.fail(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
