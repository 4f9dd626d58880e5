package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/talent-forge/internal/domain/session"
)

const (
	pendingKeyPrefix = "auth:pending:"
	sessionKeyPrefix = "auth:session:"
)

type redisPendingStore struct {
	rdb *redis.Client
}

// NewRedisPendingStore keeps pending logins as JSON values that expire on
// their own, so an abandoned OTP step needs no cleanup.
func NewRedisPendingStore(rdb *redis.Client) session.PendingStore {
	return &redisPendingStore{rdb: rdb}
}

func (s *redisPendingStore) Put(ctx context.Context, p session.Pending, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("pending login ttl must be positive, got %s", ttl)
	}
	return setJSON(ctx, s.rdb, pendingKeyPrefix+p.Token, p, ttl)
}

func (s *redisPendingStore) Get(ctx context.Context, token string) (*session.Pending, error) {
	var p session.Pending
	found, err := getJSON(ctx, s.rdb, pendingKeyPrefix+token, &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, session.ErrPendingNotFound
	}
	return &p, nil
}

func (s *redisPendingStore) Delete(ctx context.Context, token string) error {
	n, err := s.rdb.Del(ctx, pendingKeyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("delete pending login: %w", err)
	}
	if n == 0 {
		return session.ErrPendingNotFound
	}
	return nil
}

type redisSessionStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisSessionStore registers live sessions until their token expires.
func NewRedisSessionStore(rdb *redis.Client) session.Store {
	return &redisSessionStore{rdb: rdb, now: time.Now}
}

func (s *redisSessionStore) Create(ctx context.Context, sess session.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	return setJSON(ctx, s.rdb, sessionKeyPrefix+sess.ID, sess, ttl)
}

func (s *redisSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n == 1, nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if n == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func setJSON(ctx context.Context, rdb *redis.Client, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// getJSON reports a miss for absent keys and for values that no longer decode;
// corrupt values are dropped.
func getJSON(ctx context.Context, rdb *redis.Client, key string, dst any) (bool, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		_ = rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}
