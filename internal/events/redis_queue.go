package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fallbackTimeout bounds in-process delivery when the queue is unavailable.
const fallbackTimeout = 30 * time.Second

// RedisQueue publishes events onto a Redis list and delivers popped events
// to the local subscribers.
type RedisQueue struct {
	client *redis.Client
	key    string
	local  Dispatcher
	logger *zap.Logger
}

// NewRedisQueue wires a queue on key that delivers through local.
func NewRedisQueue(client *redis.Client, key string, local Dispatcher, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{client: client, key: key, local: local, logger: logger}
}

// Publish enqueues the event. When Redis cannot take it the event is delivered
// in a background goroutine instead, so Publish never reports an error for a
// well-formed event.
func (q *RedisQueue) Publish(ctx context.Context, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if q.client != nil {
		err = q.client.LPush(ctx, q.key, raw).Err()
		if err == nil {
			return nil
		}
	}

	q.logger.Warn("event queue unavailable; delivering in process",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Error(err),
	)
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), fallbackTimeout)
		defer cancel()
		if err := q.local.Publish(bg, event); err != nil {
			q.logger.Error("event delivery failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Subscribe registers a local handler.
func (q *RedisQueue) Subscribe(eventType EventType, handler EventHandler) {
	q.local.Subscribe(eventType, handler)
}

// Pop blocks up to timeout for the next event. It returns nil, nil when the
// timeout elapses with nothing queued.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Event, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP replies with [key, value].
	var event Event
	if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Deliver runs local subscribers for an event popped from the queue.
func (q *RedisQueue) Deliver(ctx context.Context, event Event) error {
	return q.local.Publish(ctx, event)
}
