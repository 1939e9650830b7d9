package services

import (
	"context"
	"strconv"

	"github.com/yatube/yatube/pkg/logger"
	"github.com/yatube/yatube/pkg/queue"
)

// publishEvent sends an event keyed by the acting user. Delivery failures
// are logged; they never fail the request that caused them.
func publishEvent(ctx context.Context, producer queue.Publisher, log *logger.Logger, actorID uint, t queue.EventType, data interface{}) {
	event, err := queue.NewEvent(t, data)
	if err != nil {
		log.WithError(err).Error("Failed to build event")
		return
	}
	if err := producer.Publish(ctx, strconv.FormatUint(uint64(actorID), 10), event); err != nil {
		log.WithError(err).WithField("event", string(t)).Error("Failed to publish event")
	}
}
