package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/application/service"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

const publishTimeout = 5 * time.Second

// publishAccountEvent is fire-and-forget; a broker outage must not fail the
// request that caused the event.
func publishAccountEvent(publisher service.EventPublisher, log logger.Logger, typ event.AccountEventType, u *user.User) {
	if publisher == nil {
		return
	}
	payload := event.AccountEventPayload{
		EventType:  typ,
		UserID:     u.ID,
		UserType:   string(u.Type),
		OccurredAt: time.Now().UTC(),
	}
	go func(userID uuid.UUID) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := publisher.PublishAccountEvent(ctx, payload); err != nil {
			log.Error("Failed to publish account event", err,
				zap.String("event_type", string(typ)), zap.String("user_id", userID.String()))
		}
	}(u.ID)
}
