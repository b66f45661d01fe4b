// Package analytics keeps best-effort notification counters in Redis.
// It exists for operators ("how many failure notifications did we relay
// last hour?"); it never affects delivery correctness.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config controls counter bucketing. Window picks the bucket granularity,
// Retention the TTL on each counter key.
type Config struct {
	Enabled   bool
	Window    time.Duration // 1m, 5m or 1h
	Retention time.Duration // must be >= Window
}

type Sink interface {
	Record(ctx context.Context, trigger, outcome string, at time.Time) error
}

type RedisSink struct {
	client *redis.Client
	config Config
}

func NewRedisSink(client *redis.Client, config Config) *RedisSink {
	return &RedisSink{client: client, config: config}
}

// Record increments the counter for (trigger, outcome) in the current time
// bucket and refreshes its TTL.
func (s *RedisSink) Record(ctx context.Context, trigger, outcome string, at time.Time) error {
	if !s.config.Enabled {
		return nil
	}

	key := buildKey(trigger, outcome, at, s.config.Window)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.config.Retention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

func buildKey(trigger, outcome string, t time.Time, window time.Duration) string {
	return fmt.Sprintf("notify:%s:%s:%s", trigger, outcome, truncateToBucket(t, window))
}

func truncateToBucket(t time.Time, window time.Duration) string {
	t = t.UTC()
	switch window {
	case time.Minute:
		return t.Format("200601021504")
	case 5 * time.Minute:
		minute := (t.Minute() / 5) * 5
		return t.Format("2006010215") + fmt.Sprintf("%02d", minute)
	case time.Hour:
		return t.Format("2006010215")
	default:
		return t.Format("200601021504")
	}
}

// NoopSink discards analytics. Used when no Redis address is configured.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (*NoopSink) Record(ctx context.Context, trigger, outcome string, at time.Time) error {
	return nil
}
