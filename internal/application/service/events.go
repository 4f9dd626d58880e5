package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

const publishTimeout = 5 * time.Second

type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, payload event.AccountEventPayload) error
	PublishProfileEvent(ctx context.Context, payload event.ProfileEventPayload) error
}

// PublishProfileEvent sends payload in the background and only logs a failure,
// so a broker outage never fails the write that produced the event. A nil
// publisher is a no-op. The returned channel closes once the send finishes.
func PublishProfileEvent(publisher EventPublisher, log logger.Logger, payload event.ProfileEventPayload) <-chan struct{} {
	done := make(chan struct{})
	if publisher == nil {
		close(done)
		return done
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := publisher.PublishProfileEvent(ctx, payload); err != nil {
			log.Error("Failed to publish profile event", err,
				zap.String("event_type", string(payload.EventType)),
				zap.String("user_id", payload.UserID.String()))
		}
	}()
	return done
}
