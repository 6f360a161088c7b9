package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sarthi-rx/server/internal/agent/model"
	errx "github.com/sarthi-rx/server/internal/core/error"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// RedisSessionStore keeps each session as one JSON blob. Every Put refreshes
// the TTL, so idle sessions expire on their own.
type RedisSessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionStore(rdb redis.Cmdable, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionStore) sessionKey(key model.SessionKey) string {
	return "session" + model.KeySeparator + key.String()
}

func (r *RedisSessionStore) Get(ctx context.Context, key model.SessionKey) (*model.Session, error) {
	k := r.sessionKey(key)
	raw, err := r.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", k).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		logx.Error().Err(err).Str("key", k).Msg("failed to unmarshal session")
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Put(ctx context.Context, s *model.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		logx.Error().Err(err).Str("session", s.Key().String()).Msg("failed to marshal session")
		return fmt.Errorf("marshal session: %w", err)
	}
	k := r.sessionKey(s.Key())
	if err := r.rdb.Set(ctx, k, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", k).Msg("failed to write session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, key model.SessionKey) error {
	k := r.sessionKey(key)
	if err := r.rdb.Del(ctx, k).Err(); err != nil {
		logx.Error().Err(err).Str("key", k).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// TTL reports the remaining lifetime of a stored session.
func (r *RedisSessionStore) TTL(ctx context.Context, key model.SessionKey) (time.Duration, error) {
	d, err := r.rdb.TTL(ctx, r.sessionKey(key)).Result()
	if err != nil {
		return 0, errx.WrapRedis(err)
	}
	return d, nil
}

var _ model.SessionStore = (*RedisSessionStore)(nil)
