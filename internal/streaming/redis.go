package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDurability stores the events handed to Append in a per-request Redis
// list so an SSE client reconnecting with a Last-Event-ID can replay events
// the in-memory ring has already evicted. Manager.Publish does not write to
// it: an event is stored only when a caller passes it to Append.
type RedisDurability struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDurability wires a durability layer against an existing Redis
// client. ttl bounds how long a request's event list survives after its
// last write (spec.md carries no durability requirement beyond the life of
// a single request).
func NewRedisDurability(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisDurability {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &RedisDurability{client: client, ttl: ttl, logger: logger}
}

func (d *RedisDurability) key(requestID string) string {
	return fmt.Sprintf("research:stream:%s", requestID)
}

// Append persists evt to the request's durable list, refreshing the TTL.
func (d *RedisDurability) Append(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	key := d.key(evt.RequestID)
	pipe := d.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, d.ttl)
	_, err = pipe.Exec(ctx)
	if err != nil {
		d.logger.Warn("streaming: redis durability append failed", zap.String("requestId", evt.RequestID), zap.Error(err))
	}
	return err
}

// ReplaySince returns every durably-stored event for requestID with Seq >
// since, for clients reconnecting past the in-memory ring's window.
func (d *RedisDurability) ReplaySince(ctx context.Context, requestID string, since uint64) ([]Event, error) {
	raw, err := d.client.LRange(ctx, d.key(requestID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read event list: %w", err)
	}
	out := make([]Event, 0, len(raw))
	for _, item := range raw {
		var evt Event
		if err := json.Unmarshal([]byte(item), &evt); err != nil {
			continue
		}
		if evt.Seq > since {
			out = append(out, evt)
		}
	}
	return out, nil
}

// Discard removes a request's durable history once its result has been
// delivered and, in eval mode, audited.
func (d *RedisDurability) Discard(ctx context.Context, requestID string) error {
	return d.client.Del(ctx, d.key(requestID)).Err()
}
