package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventPostCreated    EventType = "post_created"
	EventPostEdited     EventType = "post_edited"
	EventCommentCreated EventType = "comment_created"
	EventFollowCreated  EventType = "follow_created"
	EventFollowDeleted  EventType = "follow_deleted"
)

type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func NewEvent(t EventType, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s data: %w", t, err)
	}
	return Event{Type: t, Timestamp: time.Now().UTC(), Data: raw}, nil
}

func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

func DecodeEvent(value []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return e, nil
}

// DecodeData unpacks the payload into dest.
func (e Event) DecodeData(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w", e.Type, err)
	}
	return nil
}

type PostEventData struct {
	PostID   uint  `json:"post_id"`
	AuthorID uint  `json:"author_id"`
	GroupID  *uint `json:"group_id,omitempty"`
}

type CommentEventData struct {
	CommentID    uint `json:"comment_id"`
	PostID       uint `json:"post_id"`
	AuthorID     uint `json:"author_id"`
	PostAuthorID uint `json:"post_author_id"`
}

type FollowEventData struct {
	UserID   uint `json:"user_id"`
	AuthorID uint `json:"author_id"`
}
