package models

import "time"

type NotificationKind string

const (
	NotificationComment NotificationKind = "comment"
	NotificationFollow  NotificationKind = "follow"
)

type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	RecipientID uint             `json:"recipient_id" gorm:"not null;index"`
	ActorID     uint             `json:"actor_id" gorm:"not null"`
	Kind        NotificationKind `json:"kind" gorm:"size:20;not null"`
	PostID      *uint            `json:"post_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`

	Recipient User  `json:"-" gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
	Actor     User  `json:"actor" gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE"`
	Post      *Post `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (Notification) TableName() string {
	return "notifications"
}
