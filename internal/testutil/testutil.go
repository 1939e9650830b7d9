// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yatube/yatube/internal/config"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const Password = "s3cret-pass"

// NewDB opens a private in-memory sqlite database with the schema migrated.
func NewDB(t *testing.T) *repository.Database {
	t.Helper()
	db, err := repository.NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var passwordHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// CreateUser stores an active user whose password is Password.
func CreateUser(t *testing.T, db *repository.Database, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: passwordHash, IsActive: true}
	require.NoError(t, repository.NewUserRepository(db.DB).Create(context.Background(), user))
	return user
}

func CreateGroup(t *testing.T, db *repository.Database, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, repository.NewGroupRepository(db.DB).Create(context.Background(), group))
	return group
}

// CreatePost stores a post. Successive calls get strictly increasing
// creation times so ordering in tests never depends on clock resolution.
func CreatePost(t *testing.T, db *repository.Database, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	post := &models.Post{
		Text:      text,
		AuthorID:  author.ID,
		CreatedAt: nextTimestamp(),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	require.NoError(t, repository.NewPostRepository(db.DB).Create(context.Background(), post))
	return post
}

var clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()

func nextTimestamp() time.Time {
	return time.Unix(0, atomic.AddInt64(&clock, int64(time.Second))).UTC()
}

func Follow(t *testing.T, db *repository.Database, user, author *models.User) {
	t.Helper()
	_, err := repository.NewFollowRepository(db.DB).Create(context.Background(), user.ID, author.ID)
	require.NoError(t, err)
}
