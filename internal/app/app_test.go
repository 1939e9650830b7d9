package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatube/yatube/internal/config"
	"github.com/yatube/yatube/internal/middleware"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/internal/services"
	"github.com/yatube/yatube/internal/testutil"
	"github.com/yatube/yatube/pkg/cache"
	"github.com/yatube/yatube/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	t      *testing.T
	cfg    *config.Config
	db     *repository.Database
	svc    *Services
	pages  *cache.PageCache
	router *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{LoginURL: "/auth/login/"},
		JWT:        config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Cache:      config.CacheConfig{Store: "memory", IndexTTL: 20 * time.Second, Prefix: "test:page:"},
		Pagination: config.PaginationConfig{PageSize: 10},
		RateLimit:  config.RateLimitConfig{AuthPerMinute: 0},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := testConfig()
	db := testutil.NewDB(t)

	store, closeStore, err := NewPageStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })

	deps := Deps{
		DB:     db.DB,
		Pages:  NewPageCache(store, cfg),
		Logger: logger.Discard(),
	}
	svc := NewServices(cfg, deps)
	return &testApp{
		t:      t,
		cfg:    cfg,
		db:     db,
		svc:    svc,
		pages:  deps.Pages,
		router: NewRouter(cfg, svc, deps),
	}
}

func (a *testApp) do(method, target string, user *models.User, form url.Values) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		token, err := middleware.GenerateToken(user, JWTConfig(a.cfg))
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) postCount() int64 {
	n, err := repository.NewPostRepository(a.db.DB).Count(context.Background(), repository.AllPosts())
	require.NoError(a.t, err)
	return n
}

type pageBody struct {
	PageObj struct {
		Items []struct {
			ID     uint   `json:"id"`
			Text   string `json:"text"`
			Author struct {
				Username string `json:"username"`
			} `json:"author"`
		} `json:"object_list"`
		Number   int `json:"number"`
		NumPages int `json:"num_pages"`
	} `json:"page_obj"`
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) pageBody {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body pageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAnonymousMutationsRedirectToLogin(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	post := testutil.CreatePost(t, a.db, leo, nil, "hello")
	id := post.ID

	tests := []struct {
		method string
		target string
		form   url.Values
	}{
		{http.MethodGet, "/create/", nil},
		{http.MethodPost, "/create/", url.Values{"text": {"anon"}}},
		{http.MethodGet, postPath(id) + "edit/", nil},
		{http.MethodPost, postPath(id) + "edit/", url.Values{"text": {"anon"}}},
		{http.MethodPost, postPath(id) + "comment/", url.Values{"text": {"anon"}}},
		{http.MethodGet, "/follow/", nil},
		{http.MethodGet, "/profile/leo/follow/", nil},
		{http.MethodGet, "/profile/leo/unfollow/", nil},
		{http.MethodGet, "/notifications/", nil},
		{http.MethodPost, "/auth/password_change/", url.Values{}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := a.do(tt.method, tt.target, nil, tt.form)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/auth/login/?next="+tt.target, w.Header().Get("Location"))
		})
	}

	assert.Equal(t, int64(1), a.postCount())
}

func postPath(id uint) string {
	return "/posts/" + idString(id) + "/"
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestCreatePostRedirectsToProfile(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	cats := testutil.CreateGroup(t, a.db, "cats")

	w := a.do(http.MethodPost, "/create/", leo, url.Values{"text": {"New post"}, "group": {idString(cats.ID)}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/leo/", w.Header().Get("Location"))
	assert.Equal(t, int64(1), a.postCount())

	page := decodePage(t, a.do(http.MethodGet, "/group/cats/", nil, nil))
	require.Len(t, page.PageObj.Items, 1)
	assert.Equal(t, "New post", page.PageObj.Items[0].Text)
}

func TestCreatePostValidationEchoesInput(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")

	w := a.do(http.MethodPost, "/create/", leo, url.Values{"text": {""}})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
		Input  map[string]any    `json:"input"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "text")
	assert.Contains(t, body.Input, "text")
	assert.Zero(t, a.postCount())
}

func TestCreateFormContext(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	testutil.CreateGroup(t, a.db, "cats")

	w := a.do(http.MethodGet, "/create/", leo, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Groups []map[string]any `json:"groups"`
		IsEdit bool             `json:"is_edit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Groups, 1)
	assert.False(t, body.IsEdit)
}

func TestEditPost(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	anna := testutil.CreateUser(t, a.db, "anna")
	post := testutil.CreatePost(t, a.db, leo, nil, "original")
	detail := postPath(post.ID)

	w := a.do(http.MethodPost, detail+"edit/", anna, url.Values{"text": {"hijacked"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))

	w = a.do(http.MethodGet, detail+"edit/", anna, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))

	stored, err := repository.NewPostRepository(a.db.DB).GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Text)

	w = a.do(http.MethodGet, detail+"edit/", leo, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_edit":true`)

	w = a.do(http.MethodPost, detail+"edit/", leo, url.Values{"text": {"edited"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))

	stored, err = repository.NewPostRepository(a.db.DB).GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Text)
	assert.Equal(t, leo.ID, stored.AuthorID)
	assert.True(t, post.CreatedAt.Equal(stored.CreatedAt))
}

func TestUnknownObjectsAreNotFound(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")

	targets := []string{
		"/posts/999/",
		"/posts/abc/",
		"/posts/9223372036854775808/",
		"/posts/9223372036854775808/edit/",
		"/group/nope/",
		"/profile/ghost/",
		"/unexisting_page/",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			w := a.do(http.MethodGet, target, nil, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}

	w := a.do(http.MethodGet, "/posts/999/edit/", leo, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodPost, "/posts/999/comment/", leo, url.Values{"text": {"hi"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodGet, "/profile/ghost/follow/", leo, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupPagination(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	cats := testutil.CreateGroup(t, a.db, "cats")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, a.db, leo, cats, "post")
	}

	for _, target := range []string{"/", "/group/cats/", "/profile/leo/"} {
		t.Run(target, func(t *testing.T) {
			first := decodePage(t, a.do(http.MethodGet, target, nil, nil))
			assert.Len(t, first.PageObj.Items, 10)
			assert.Equal(t, 2, first.PageObj.NumPages)

			second := decodePage(t, a.do(http.MethodGet, target+"?page=2", nil, nil))
			assert.Len(t, second.PageObj.Items, 3)
			assert.Equal(t, 2, second.PageObj.Number)

			beyond := decodePage(t, a.do(http.MethodGet, target+"?page=99", nil, nil))
			assert.Len(t, beyond.PageObj.Items, 3)
			assert.Equal(t, 2, beyond.PageObj.Number)
		})
	}
}

func TestIndexIsCached(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	testutil.CreatePost(t, a.db, leo, nil, "first post")

	before := a.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, before.Code)

	_, err := a.svc.Post.Create(ctx, leo, &services.PostInput{Text: "fresh post"})
	require.NoError(t, err)

	cached := a.do(http.MethodGet, "/", nil, nil)
	assert.Equal(t, before.Body.Bytes(), cached.Body.Bytes())
	assert.NotContains(t, cached.Body.String(), "fresh post")

	require.NoError(t, a.pages.Clear(ctx))

	after := a.do(http.MethodGet, "/", nil, nil)
	assert.NotEqual(t, before.Body.Bytes(), after.Body.Bytes())
	assert.Contains(t, after.Body.String(), "fresh post")
}

func TestPostDetailWithComments(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	anna := testutil.CreateUser(t, a.db, "anna")
	post := testutil.CreatePost(t, a.db, leo, nil, "hello")
	detail := postPath(post.ID)

	w := a.do(http.MethodPost, detail+"comment/", anna, url.Values{"text": {"Nice one"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))

	w = a.do(http.MethodGet, detail, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		CommentCount int64 `json:"comment_count"`
		CountPosts   int64 `json:"count_posts"`
		Comments     []struct {
			Text string `json:"text"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.CommentCount)
	assert.Equal(t, int64(1), body.CountPosts)
	require.Len(t, body.Comments, 1)
	assert.Equal(t, "Nice one", body.Comments[0].Text)
}

func TestFollowFlow(t *testing.T) {
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	anna := testutil.CreateUser(t, a.db, "anna")
	ivan := testutil.CreateUser(t, a.db, "ivan")
	testutil.CreatePost(t, a.db, anna, nil, "by anna")
	testutil.CreatePost(t, a.db, ivan, nil, "by ivan")

	for i := 0; i < 2; i++ {
		w := a.do(http.MethodGet, "/profile/anna/follow/", leo, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/profile/anna/", w.Header().Get("Location"))
	}
	followers, err := repository.NewFollowRepository(a.db.DB).CountFollowers(context.Background(), anna.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	feed := decodePage(t, a.do(http.MethodGet, "/follow/", leo, nil))
	require.Len(t, feed.PageObj.Items, 1)
	assert.Equal(t, "anna", feed.PageObj.Items[0].Author.Username)

	w := a.do(http.MethodGet, "/profile/anna/", leo, nil)
	assert.Contains(t, w.Body.String(), `"following":true`)

	w = a.do(http.MethodGet, "/profile/leo/follow/", leo, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/leo/", w.Header().Get("Location"))

	for i := 0; i < 2; i++ {
		w = a.do(http.MethodPost, "/profile/anna/unfollow/", leo, nil)
		assert.Equal(t, http.StatusFound, w.Code)
	}
	feed = decodePage(t, a.do(http.MethodGet, "/follow/", leo, nil))
	assert.Empty(t, feed.PageObj.Items)
}

func TestSignupAndLogin(t *testing.T) {
	a := newTestApp(t)

	w := a.do(http.MethodPost, "/auth/signup/", nil, url.Values{
		"username":  {"leo"},
		"password1": {"long-enough"},
		"password2": {"long-enough"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/auth/signup/", nil, url.Values{
		"username":  {"leo"},
		"password1": {"long-enough"},
		"password2": {"long-enough"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	w = a.do(http.MethodPost, "/auth/login/", nil, url.Values{"username": {"leo"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/auth/login/", nil, url.Values{"username": {"leo"}, "password": {"long-enough"}})
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)

	w = a.do(http.MethodPost, "/auth/login/?next=/create/", nil, url.Values{"username": {"leo"}, "password": {"long-enough"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/create/", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.TokenCookie+"=")

	w = a.do(http.MethodPost, "/auth/login/?next=//evil.example", nil, url.Values{"username": {"leo"}, "password": {"long-enough"}})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/auth/login/?next=/create/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"next":"/create/"`)
}

func TestNotificationsEndpoint(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	leo := testutil.CreateUser(t, a.db, "leo")
	anna := testutil.CreateUser(t, a.db, "anna")
	require.NoError(t, repository.NewNotificationRepository(a.db.DB).Create(ctx, &models.Notification{
		RecipientID: leo.ID,
		ActorID:     anna.ID,
		Kind:        models.NotificationFollow,
	}))

	w := a.do(http.MethodGet, "/notifications/", leo, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"follow"`)
	assert.Contains(t, w.Body.String(), `"username":"anna"`)
}
