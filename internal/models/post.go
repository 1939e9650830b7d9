package models

import "time"

type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"size:200;not null"`
	Slug        string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (g Group) String() string {
	return g.Title
}

// Post author is protected: a user with posts cannot be deleted.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"pub_date" gorm:"index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	GroupID   *uint     `json:"group_id" gorm:"index"`
	Image     string    `json:"image,omitempty" gorm:"size:255"`

	Author User   `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
	Group  *Group `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
}

// String is a short preview of the text, 15 characters at most.
func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > 15 {
		return string(runes[:15])
	}
	return p.Text
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created" gorm:"index"`

	Post   Post `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Author User `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (Group) TableName() string {
	return "groups"
}

func (Post) TableName() string {
	return "posts"
}

func (Comment) TableName() string {
	return "comments"
}
