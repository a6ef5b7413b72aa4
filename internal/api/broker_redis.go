package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroker implements EventBroker over Redis Pub/Sub so every instance
// sharing the Redis sees the same events.
type RedisBroker struct {
	rdb    *redis.Client
	logger zerolog.Logger

	mu  sync.Mutex
	pss map[chan Event]*redis.PubSub
}

func NewRedisBroker(rdb *redis.Client, logger zerolog.Logger) *RedisBroker {
	return &RedisBroker{
		rdb:    rdb,
		logger: logger.With().Str("component", "redis_broker").Logger(),
		pss:    map[chan Event]*redis.PubSub{},
	}
}

func (b *RedisBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(topic))
	// initial consume to ensure subscription
	if _, err := ps.Receive(ctx); err != nil {
		b.logger.Warn().Err(err).Str("topic", topic).Msg("subscribe failed")
	}
	b.mu.Lock()
	b.pss[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.logger.Debug().Err(err).Msg("dropping malformed event")
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the subscription; ch is closed once its reader drains.
func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	ps, ok := b.pss[ch]
	delete(b.pss, ch)
	b.mu.Unlock()
	if ok {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(topic string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, b.chanName(topic), data).Err(); err != nil {
		b.logger.Warn().Err(err).Str("topic", topic).Msg("publish failed")
	}
}

func (b *RedisBroker) chanName(topic string) string { return "crewtime:events:" + topic }
