package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/yatube/yatube/internal/middleware"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/services"
	"github.com/yatube/yatube/pkg/paginator"
	"github.com/yatube/yatube/pkg/storage"
)

type PostHandler struct {
	responder
	feedService    *services.FeedService
	postService    *services.PostService
	commentService *services.CommentService
	media          *storage.MediaStorage
}

func NewPostHandler(
	feedService *services.FeedService,
	postService *services.PostService,
	commentService *services.CommentService,
	media *storage.MediaStorage,
	loginURL string,
) *PostHandler {
	return &PostHandler{
		responder:      responder{loginURL: loginURL},
		feedService:    feedService,
		postService:    postService,
		commentService: commentService,
		media:          media,
	}
}

func pageNumber(c *gin.Context) int {
	return paginator.ParseNumber(c.Query("page"))
}

// Index is the public listing of every post. Its body must not depend on
// who is asking, since it is served from the page cache.
func (h *PostHandler) Index(c *gin.Context) {
	page, err := h.feedService.Index(c.Request.Context(), pageNumber(c))
	if err != nil {
		h.fail(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page_obj": newPostPageView(page, h.media)})
}

func (h *PostHandler) GroupPosts(c *gin.Context) {
	feed, err := h.feedService.Group(c.Request.Context(), c.Param("slug"), pageNumber(c))
	if err != nil {
		h.fail(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"group":    newGroupView(feed.Group),
		"page_obj": newPostPageView(feed.Page, h.media),
	})
}

func (h *PostHandler) Profile(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	feed, err := h.feedService.Profile(c.Request.Context(), viewer, c.Param("username"), pageNumber(c))
	if err != nil {
		h.fail(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"author":          newAuthorView(*feed.Author),
		"count_posts":     feed.PostCount,
		"followers_count": feed.FollowersCount,
		"following_count": feed.FollowingCount,
		"following":       feed.Following,
		"page_obj":        newPostPageView(feed.Page, h.media),
	})
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	detail, err := h.postService.Detail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post":          newPostView(detail.Post, h.media),
		"count_posts":   detail.AuthorPostCount,
		"comment_count": detail.CommentCount,
		"comments":      newCommentViews(detail.Comments),
	})
}

func (h *PostHandler) Following(c *gin.Context) {
	page, err := h.feedService.Following(c.Request.Context(), middleware.CurrentUser(c), pageNumber(c))
	if err != nil {
		h.fail(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page_obj": newPostPageView(page, h.media)})
}

func (h *PostHandler) formContext(form *services.PostForm) gin.H {
	groups := lo.Map(form.Groups, func(g *models.Group, _ int) *GroupView { return newGroupView(g) })
	ctx := gin.H{
		"groups":  groups,
		"is_edit": form.IsEdit,
	}
	if form.Post != nil {
		ctx["post"] = newPostView(form.Post, h.media)
	}
	return ctx
}

func (h *PostHandler) CreateForm(c *gin.Context) {
	form, err := h.postService.CreateForm(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		h.fail(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, h.formContext(form))
}

// bindPost reads the post form and, when present, the uploaded image.
// The returned cleanup closes the upload.
func (h *PostHandler) bindPost(c *gin.Context) (*services.PostInput, func(), error) {
	var input services.PostInput
	if err := c.ShouldBind(&input); err != nil {
		return nil, func() {}, err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return &input, func() {}, nil
	}
	file, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	input.Image = file
	return &input, func() { _ = file.Close() }, nil
}

func (h *PostHandler) Create(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	if viewer == nil {
		h.fail(c, services.ErrUnauthenticated, "", nil)
		return
	}

	input, cleanup, err := h.bindPost(c)
	defer cleanup()
	if err != nil {
		h.badForm(c, err)
		return
	}

	if _, err := h.postService.Create(c.Request.Context(), viewer, input); err != nil {
		h.fail(c, err, "", input)
		return
	}
	c.Redirect(http.StatusFound, profileURL(viewer.Username))
}

func (h *PostHandler) EditForm(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	form, err := h.postService.EditForm(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		h.fail(c, err, postURL(id), nil)
		return
	}
	c.JSON(http.StatusOK, h.formContext(form))
}

func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	viewer := middleware.CurrentUser(c)
	if viewer == nil {
		h.fail(c, services.ErrUnauthenticated, "", nil)
		return
	}

	input, cleanup, err := h.bindPost(c)
	defer cleanup()
	if err != nil {
		h.badForm(c, err)
		return
	}

	if _, err := h.postService.Edit(c.Request.Context(), viewer, id, input); err != nil {
		h.fail(c, err, postURL(id), input)
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	viewer := middleware.CurrentUser(c)
	if viewer == nil {
		h.fail(c, services.ErrUnauthenticated, "", nil)
		return
	}

	var input services.CommentInput
	if err := c.ShouldBind(&input); err != nil {
		h.badForm(c, err)
		return
	}

	if _, err := h.commentService.Add(c.Request.Context(), viewer, id, &input); err != nil {
		h.fail(c, err, postURL(id), input)
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}
