package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yatube/yatube/internal/models"
)

const (
	// TokenCookie carries the session token for browser clients.
	TokenCookie = "token"

	currentUserKey = "current_user"
)

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserLoader resolves the user a token was issued to.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

func GenerateToken(user *models.User, cfg *JWTConfig) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and returns the user id the
// token was issued to.
func ParseToken(raw string, cfg *JWTConfig) (uint, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("token subject is not a user id")
	}
	return uint(id), nil
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// NewJWTAuth resolves the requesting user from a bearer token or the token
// cookie. It never rejects a request: a missing or bad token leaves the
// request anonymous, and each operation decides what anonymous may do.
func NewJWTAuth(cfg *JWTConfig, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			c.Next()
			return
		}

		id, err := ParseToken(raw, cfg)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), id)
		if err == nil && user != nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func GetUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

// LoginRedirectURL builds the login address with next pointing back at the
// original target, e.g. /auth/login/?next=/create/.
func LoginRedirectURL(loginURL, next string) string {
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	escaped := strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
	return loginURL + sep + "next=" + escaped
}
