// Package queue is the trigger-event transport spec.md §6 leaves out
// of scope ("the caller may use any queue/job system"): a Redis
// Streams producer and consumer-group consumer carrying
// workflow/execute.workflow events to the runner.
//
// Grounded on smilemakc-mbflow's cache.RedisCache (client construction
// and connection verification) and trigger.EventListener (the
// publish/listen shape), generalized from mbflow's pub/sub — which
// drops a message the instant no consumer is connected — to Streams
// with a consumer group, since the durability contract the runner and
// services/step provide (redelivery resumes instead of restarting) is
// only meaningful if the transport actually redelivers unacknowledged
// work rather than discarding it.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamKey is the Redis stream carrying trigger events.
	StreamKey = "workflowengine:executions"
	// fieldPayload is the single field name each stream entry carries;
	// the event itself is JSON-encoded into it rather than split
	// across per-field entries, keeping the wire shape identical to
	// the runner.TriggerEvent Go type.
	fieldPayload = "payload"
)

// Config holds the Redis connection settings. Grounded on mbflow's
// config.RedisConfig / cache.NewRedisCache field set.
type Config struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// Client wraps a *redis.Client for trigger-event publish and consume.
type Client struct {
	rdb *redis.Client
}

// Connect parses cfg.URL, applies overrides, and verifies connectivity
// with a ping before returning.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize != 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("queue: connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Publish appends event to the execution stream. The returned entry
// ID is Redis's own monotonic stream ID, not the workflow execution
// ID; callers that need a stable execution identity should set one
// inside the payload (runner.TriggerEvent.ExecutionID).
func (c *Client) Publish(ctx context.Context, event any) (string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("queue: marshal event: %w", err)
	}

	id, err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]any{fieldPayload: payload},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("queue: publish: %w", err)
	}
	return id, nil
}

// EnsureGroup creates the consumer group if it does not already
// exist. MKSTREAM creates the stream itself too, so this is safe to
// call before any event has ever been published.
func (c *Client) EnsureGroup(ctx context.Context, group string) error {
	err := c.rdb.XGroupCreateMkStream(ctx, StreamKey, group, "$").Err()
	if err != nil && !isBusyGroupErr(err) {
		return fmt.Errorf("queue: create consumer group %q: %w", group, err)
	}
	return nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

// Message is one delivered stream entry awaiting acknowledgement.
type Message struct {
	ID      string
	Payload []byte
}

// Consume reads up to count undelivered messages for consumer within
// group, blocking up to block for at least one. An empty result with
// a nil error means the block window elapsed with nothing new.
func (c *Client) Consume(ctx context.Context, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{StreamKey, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue: consume: %w", err)
	}

	var out []Message
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			raw, _ := entry.Values[fieldPayload].(string)
			out = append(out, Message{ID: entry.ID, Payload: []byte(raw)})
		}
	}
	return out, nil
}

// Ack acknowledges successful (or permanently-failed, non-retriable)
// processing of a message so it is not redelivered.
func (c *Client) Ack(ctx context.Context, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.rdb.XAck(ctx, StreamKey, group, ids...).Err(); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	return nil
}
