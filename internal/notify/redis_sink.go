package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

// RedisSink publishes notices on a per-form channel and keeps a short list
// of recent ones for late subscribers.
type RedisSink struct {
	client redis.UniversalClient
	prefix string
	limit  int64
}

// NewRedisSink constructs the sink.
func NewRedisSink(client redis.UniversalClient, prefix string, limit int) *RedisSink {
	if prefix == "" {
		prefix = "notices"
	}
	if limit <= 0 {
		limit = 20
	}
	return &RedisSink{client: client, prefix: prefix, limit: int64(limit)}
}

// Channel is the pub/sub channel of a form.
func (s *RedisSink) Channel(formID string) string {
	return s.prefix + ":" + formID
}

func (s *RedisSink) recentKey(formID string) string {
	return s.prefix + ":" + formID + ":recent"
}

// Deliver implements Sink.
func (s *RedisSink) Deliver(ctx context.Context, n domain.Notice) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	key := s.recentKey(n.FormID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, s.Channel(n.FormID), body)
		pipe.LPush(ctx, key, body)
		pipe.LTrim(ctx, key, 0, s.limit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis notice delivery: %w", err)
	}
	return nil
}

// Recent reads the stored notices of a form, newest first.
func (s *RedisSink) Recent(ctx context.Context, formID string) ([]domain.Notice, error) {
	raw, err := s.client.LRange(ctx, s.recentKey(formID), 0, s.limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notice, 0, len(raw))
	for _, item := range raw {
		var n domain.Notice
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Forget removes the stored notices of a form.
func (s *RedisSink) Forget(ctx context.Context, formID string) error {
	return s.client.Del(ctx, s.recentKey(formID)).Err()
}
