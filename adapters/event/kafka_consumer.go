package event

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/pkg/logger"
)

// MessageReader is the part of *kafka.Reader the consumer loop uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type ProfileEventHandler func(ctx context.Context, payload ProfileEventPayload) error

type RetryPolicy struct {
	// MaxAttempts bounds how often one message is handled before it is skipped.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    30 * time.Second,
}

// backoff returns the delay before retry n (0-based): BaseDelay doubled per
// attempt, capped at MaxDelay.
func (p RetryPolicy) backoff(n int) time.Duration {
	if n > 30 {
		n = 30
	}
	delay := p.BaseDelay * time.Duration(1<<uint(n))
	if delay <= 0 || delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// ProfileEventConsumer reads TopicProfileEvents in a consumer group. Offsets
// are committed in order, so a message is retried in place and then skipped
// rather than left behind for redelivery.
type ProfileEventConsumer struct {
	reader MessageReader
	handle ProfileEventHandler
	retry  RetryPolicy
	logger logger.Logger
}

func NewProfileEventConsumer(reader MessageReader, handle ProfileEventHandler, retry RetryPolicy, log logger.Logger) *ProfileEventConsumer {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &ProfileEventConsumer{reader: reader, handle: handle, retry: retry, logger: log}
}

// Run processes messages until ctx is done. It returns nil on shutdown.
func (c *ProfileEventConsumer) Run(ctx context.Context) error {
	fetchFailures := 0
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to fetch message from Kafka", err, zap.Int("consecutive_failures", fetchFailures+1))
			if !sleep(ctx, c.retry.backoff(fetchFailures)) {
				return nil
			}
			fetchFailures++
			continue
		}
		fetchFailures = 0

		payload, err := DecodeProfileEvent(msg)
		if err != nil {
			c.logger.Warn("Skipping undecodable event", zap.Error(err), zap.Int64("offset", msg.Offset))
			c.commit(ctx, msg)
			continue
		}

		if !c.handleWithRetry(ctx, msg, payload) {
			// Shutting down mid-retry: the offset stays put and the next
			// group member picks the message up again.
			return nil
		}
		c.commit(ctx, msg)
	}
}

// handleWithRetry reports false only when ctx ended before the message was
// settled.
func (c *ProfileEventConsumer) handleWithRetry(ctx context.Context, msg kafka.Message, payload ProfileEventPayload) bool {
	fields := []zap.Field{
		zap.String("event_type", string(payload.EventType)),
		zap.String("user_id", payload.UserID.String()),
		zap.Int64("offset", msg.Offset),
	}

	var err error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if err = c.handle(ctx, payload); err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if attempt == c.retry.MaxAttempts-1 {
			break
		}
		c.logger.Warn("Retrying profile event", append(fields, zap.Error(err), zap.Int("attempt", attempt+1))...)
		if !sleep(ctx, c.retry.backoff(attempt)) {
			return false
		}
	}

	c.logger.Error("Dropping profile event after retries", err, append(fields, zap.Int("attempts", c.retry.MaxAttempts))...)
	return true
}

func (c *ProfileEventConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
