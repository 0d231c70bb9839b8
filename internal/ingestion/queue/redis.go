package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the Redis list the workers consume.
const DefaultQueueKey = "energy:ingest:jobs"

const defaultPopTimeout = 5 * time.Second

// RedisQueue is the durable JobRunner: jobs are pushed onto a Redis list and
// popped by workers, so they survive a process restart. Delivery is
// at-least-once; the processing side is idempotent.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects to the broker. A failed ping is not fatal here: the
// broker may come back, and Submit reports ErrUnavailable per call.
func NewRedisQueue(addr, key string) (*RedisQueue, error) {
	if addr == "" {
		return nil, errors.New("queue: empty redis address")
	}
	if key == "" {
		key = DefaultQueueKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisQueue{client: client, key: key}, nil
}

// Submit pushes the job onto the queue. Broker errors map to ErrUnavailable
// so the dispatcher can fall back; encoding errors propagate as-is.
func (q *RedisQueue) Submit(ctx context.Context, job Job) error {
	if q == nil || q.client == nil {
		return fmt.Errorf("%w: no client", ErrUnavailable)
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Pop blocks for a bounded time waiting for the next job. It returns
// ErrEmpty when nothing arrived within the window.
func (q *RedisQueue) Pop(ctx context.Context) (Job, error) {
	if q == nil || q.client == nil {
		return Job{}, fmt.Errorf("%w: no client", ErrUnavailable)
	}
	result, err := q.client.BRPop(ctx, defaultPopTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrEmpty
	}
	if err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// BRPop returns [key, value].
	if len(result) != 2 {
		return Job{}, fmt.Errorf("queue: unexpected BRPOP reply of %d elements", len(result))
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return Job{}, fmt.Errorf("queue: decode job: %w", err)
	}
	return job, nil
}

// Ping checks broker reachability.
func (q *RedisQueue) Ping(ctx context.Context) error {
	if q == nil || q.client == nil {
		return ErrUnavailable
	}
	return q.client.Ping(ctx).Err()
}

// Close releases the client.
func (q *RedisQueue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}

// ErrEmpty marks an empty poll window.
var ErrEmpty = errors.New("queue: empty")

var _ JobRunner = (*RedisQueue)(nil)
