package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yatube/yatube/internal/services"
	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/queue"
)

// Subscriber delivers bus messages to a handler until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(context.Context, queue.Message) error) error
}

// EventWorker turns domain events into notifications and prunes old ones
// on a schedule.
type EventWorker struct {
	notifications *services.NotificationService
	consumer      Subscriber
	retention     time.Duration
	schedule      string
	cron          *cron.Cron
	logger        *logger.Logger
}

func NewEventWorker(
	notifications *services.NotificationService,
	consumer Subscriber,
	retention time.Duration,
	schedule string,
	logger *logger.Logger,
) *EventWorker {
	return &EventWorker{
		notifications: notifications,
		consumer:      consumer,
		retention:     retention,
		schedule:      schedule,
		cron:          cron.New(),
		logger:        logger,
	}
}

// Start schedules the cleanup job and consumes events until ctx ends.
func (w *EventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting event worker...")

	if _, err := w.cron.AddFunc(w.schedule, func() { w.Cleanup(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule notification cleanup: %w", err)
	}
	w.cron.Start()

	return w.consumer.Subscribe(ctx, w.HandleMessage)
}

func (w *EventWorker) Stop() error {
	<-w.cron.Stop().Done()
	w.logger.Info("Event worker stopped")
	return nil
}

// Cleanup deletes notifications past the retention period.
func (w *EventWorker) Cleanup(ctx context.Context) {
	if _, err := w.notifications.Cleanup(ctx, w.retention); err != nil {
		w.logger.WithError(err).Error("Failed to clean up notifications")
	}
}

func (w *EventWorker) HandleMessage(ctx context.Context, msg queue.Message) error {
	event, err := queue.DecodeEvent(msg.Value)
	if err != nil {
		return err
	}

	w.logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"timestamp":  event.Timestamp,
	}).Info("Processing event")

	switch event.Type {
	case queue.EventCommentCreated:
		var data queue.CommentEventData
		if err := event.DecodeData(&data); err != nil {
			return err
		}
		return w.notifications.NotifyComment(ctx, data)
	case queue.EventFollowCreated:
		var data queue.FollowEventData
		if err := event.DecodeData(&data); err != nil {
			return err
		}
		return w.notifications.NotifyFollow(ctx, data)
	case queue.EventPostCreated, queue.EventPostEdited, queue.EventFollowDeleted:
		// nothing to notify
		return nil
	default:
		w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
		return nil
	}
}
