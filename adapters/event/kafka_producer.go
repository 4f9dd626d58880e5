package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/talent-forge/internal/config"
)

const (
	TopicAccountEvents = "account.events"
	TopicProfileEvents = "profile.events"
)

type AccountEventType string

const (
	AccountEventRegistered  AccountEventType = "user.registered"
	AccountEventMFAEnabled  AccountEventType = "mfa.enabled"
	AccountEventMFADisabled AccountEventType = "mfa.disabled"
	AccountEventLoggedIn    AccountEventType = "user.logged_in"
)

type ProfileEventType string

const (
	ProfileEventCreated       ProfileEventType = "profile.created"
	ProfileEventAssetUploaded ProfileEventType = "profile.asset_uploaded"
)

type AccountEventPayload struct {
	EventType  AccountEventType `json:"event_type"`
	UserID     uuid.UUID        `json:"user_id"`
	UserType   string           `json:"user_type,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type ProfileEventPayload struct {
	EventType   ProfileEventType `json:"event_type"`
	UserID      uuid.UUID        `json:"user_id"`
	ProfileID   uuid.UUID        `json:"profile_id,omitempty"`
	ProfileType string           `json:"profile_type"`
	AssetKind   string           `json:"asset_kind,omitempty"`
	PublicID    string           `json:"public_id,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

type KafkaProducerClient struct {
	AccountEventsWriter *kafka.Writer
	ProfileEventsWriter *kafka.Writer
}

func NewKafkaProducerClient(cfg config.Config) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	accountWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicAccountEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	profileWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicProfileEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducerClient{
		AccountEventsWriter: accountWriter,
		ProfileEventsWriter: profileWriter,
	}, nil
}

// Events are keyed by user so one user's events stay ordered on a partition.
func (c *KafkaProducerClient) PublishAccountEvent(ctx context.Context, payload AccountEventPayload) error {
	return publish(ctx, c.AccountEventsWriter, payload.UserID, payload)
}

func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, payload ProfileEventPayload) error {
	return publish(ctx, c.ProfileEventsWriter, payload.UserID, payload)
}

func publish(ctx context.Context, w *kafka.Writer, key uuid.UUID, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key.String()), Value: value}); err != nil {
		return fmt.Errorf("write to topic %s: %w", w.Topic, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{c.AccountEventsWriter, c.ProfileEventsWriter} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DecodeProfileEvent parses a message read from TopicProfileEvents.
func DecodeProfileEvent(msg kafka.Message) (ProfileEventPayload, error) {
	var payload ProfileEventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return payload, fmt.Errorf("decode profile event: %w", err)
	}
	return payload, nil
}
