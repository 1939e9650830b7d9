package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/internal/services"
	"github.com/yatube/yatube/internal/testutil"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/queue"
)

// sliceSubscriber replays a fixed list of messages then returns.
type sliceSubscriber []queue.Message

func (s sliceSubscriber) Subscribe(ctx context.Context, handler func(context.Context, queue.Message) error) error {
	for _, msg := range s {
		_ = handler(ctx, msg)
	}
	return nil
}

func message(t *testing.T, typ queue.EventType, data interface{}) queue.Message {
	t.Helper()
	event, err := queue.NewEvent(typ, data)
	require.NoError(t, err)
	raw, err := event.Encode()
	require.NoError(t, err)
	return queue.Message{Value: raw, Topic: "yatube-events"}
}

func TestEventWorkerCreatesNotifications(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	anna := testutil.CreateUser(t, db, "anna")
	post := testutil.CreatePost(t, db, leo, nil, "hello")

	notifications := services.NewNotificationService(repository.NewNotificationRepository(db.DB), 10, logger.Discard())
	sub := sliceSubscriber{
		message(t, queue.EventCommentCreated, queue.CommentEventData{CommentID: 1, PostID: post.ID, AuthorID: anna.ID, PostAuthorID: leo.ID}),
		message(t, queue.EventCommentCreated, queue.CommentEventData{CommentID: 2, PostID: post.ID, AuthorID: leo.ID, PostAuthorID: leo.ID}),
		message(t, queue.EventFollowCreated, queue.FollowEventData{UserID: anna.ID, AuthorID: leo.ID}),
		message(t, queue.EventPostCreated, queue.PostEventData{PostID: post.ID, AuthorID: leo.ID}),
		{Value: []byte("garbage")},
	}

	worker := NewEventWorker(notifications, sub, 30*24*time.Hour, "@every 1h", logger.Discard())
	require.NoError(t, worker.Start(ctx))
	require.NoError(t, worker.Stop())

	page, err := notifications.List(ctx, leo, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	kinds := []models.NotificationKind{page.Items[0].Kind, page.Items[1].Kind}
	assert.ElementsMatch(t, []models.NotificationKind{models.NotificationComment, models.NotificationFollow}, kinds)

	other, err := notifications.List(ctx, anna, 1)
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	worker := NewEventWorker(nil, sliceSubscriber{}, time.Hour, "@every 1h", logger.Discard())
	assert.Error(t, worker.HandleMessage(context.Background(), queue.Message{Value: []byte("{")}))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	worker := NewEventWorker(nil, sliceSubscriber{}, time.Hour, "not a schedule", logger.Discard())
	assert.Error(t, worker.Start(context.Background()))
}
