package handlers

import (
	"time"

	"github.com/samber/lo"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/pkg/paginator"
	"github.com/yatube/yatube/pkg/storage"
)

type AuthorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type GroupView struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type PostView struct {
	ID      uint       `json:"id"`
	Text    string     `json:"text"`
	PubDate time.Time  `json:"pub_date"`
	Author  AuthorView `json:"author"`
	Group   *GroupView `json:"group"`
	Image   string     `json:"image,omitempty"`
}

type CommentView struct {
	ID      uint       `json:"id"`
	Text    string     `json:"text"`
	Created time.Time  `json:"created"`
	Author  AuthorView `json:"author"`
}

type PageView[T any] struct {
	Items       []T   `json:"object_list"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func newAuthorView(u models.User) AuthorView {
	return AuthorView{ID: u.ID, Username: u.Username, FullName: u.FullName()}
}

func newGroupView(g *models.Group) *GroupView {
	if g == nil {
		return nil
	}
	return &GroupView{ID: g.ID, Title: g.Title, Slug: g.Slug, Description: g.Description}
}

func newPostView(p *models.Post, media *storage.MediaStorage) PostView {
	view := PostView{
		ID:      p.ID,
		Text:    p.Text,
		PubDate: p.CreatedAt,
		Author:  newAuthorView(p.Author),
		Group:   newGroupView(p.Group),
	}
	if media != nil {
		view.Image = media.URL(p.Image)
	}
	return view
}

func newCommentViews(comments []*models.Comment) []CommentView {
	return lo.Map(comments, func(c *models.Comment, _ int) CommentView {
		return CommentView{ID: c.ID, Text: c.Text, Created: c.CreatedAt, Author: newAuthorView(c.Author)}
	})
}

func newPageView[S, T any](page paginator.Page[S], convert func(S) T) PageView[T] {
	return PageView[T]{
		Items:       lo.Map(page.Items, func(item S, _ int) T { return convert(item) }),
		Number:      page.Number,
		NumPages:    page.NumPages,
		Count:       page.Count,
		HasNext:     page.HasNext,
		HasPrevious: page.HasPrevious,
	}
}

func newPostPageView(page paginator.Page[*models.Post], media *storage.MediaStorage) PageView[PostView] {
	return newPageView(page, func(p *models.Post) PostView { return newPostView(p, media) })
}
