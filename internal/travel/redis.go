package travel

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisKeyPrefix = "crewtime:travel:"
	// DefaultSharedTTL bounds how long a resolved leg is shared between
	// processes.
	DefaultSharedTTL = 12 * time.Hour
	// DefaultSharedCooldown is how long the tier stays off after a Redis
	// error before it is tried again.
	DefaultSharedCooldown = 30 * time.Second
)

// RedisStore is a SharedStore on Redis. A Redis error switches it off for a
// cool-down; meanwhile the resolver carries on with the local cache and
// provider.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	cooldown time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu            sync.RWMutex
	disabledUntil time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSharedTTL
	}
	return &RedisStore{
		client:   client,
		ttl:      ttl,
		cooldown: DefaultSharedCooldown,
		logger:   logger.With().Str("component", "travel_redis").Logger(),
		now:      time.Now,
	}
}

// Available reports whether the tier is in use right now.
func (s *RedisStore) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil && !s.now().Before(s.disabledUntil)
}

// handleError trips the breaker on Redis failures. Errors from the caller's
// own context say nothing about Redis and are ignored.
func (s *RedisStore) handleError(err error, op string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Debug().Err(err).Str("operation", op).Msg("shared travel cache call abandoned")
		return
	}
	s.mu.Lock()
	s.disabledUntil = s.now().Add(s.cooldown)
	s.mu.Unlock()
	s.logger.Warn().Err(err).Str("operation", op).Dur("retry_in", s.cooldown).Msg("disabling shared travel cache due to Redis error")
}

func (s *RedisStore) Get(ctx context.Context, k Key) (int, bool) {
	if !s.Available() {
		return 0, false
	}
	raw, err := s.client.Get(ctx, redisKeyPrefix+string(k)).Result()
	if err != nil {
		s.handleError(err, "get")
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		// foreign or corrupt value: a miss, Redis itself is fine
		s.logger.Debug().Str("key", string(k)).Str("value", raw).Msg("ignoring unparsable shared travel entry")
		return 0, false
	}
	return v, true
}

func (s *RedisStore) Set(ctx context.Context, k Key, minutes int) {
	if !s.Available() {
		return
	}
	s.handleError(s.client.Set(ctx, redisKeyPrefix+string(k), minutes, s.ttl).Err(), "set")
}

// Clear deletes every shared travel entry.
func (s *RedisStore) Clear(ctx context.Context) error {
	if !s.Available() {
		return nil
	}
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 500).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.client.Del(ctx, batch...).Err()
	}
	return nil
}
