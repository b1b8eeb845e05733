package tasks

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const scheduleSet = "inkwell:render:schedule"

// RedisQueue keeps pending render tasks in a sorted set scored by fire
// time. The member is the device key, so ZADD is the idempotent upsert
// the port requires. A poller claims due members and hands them to a
// small worker pool.
type RedisQueue struct {
	rdb     *redis.Client
	poll    time.Duration
	workers int
	jobs    chan int
}

func NewRedisQueue(rdb *redis.Client, workers int) *RedisQueue {
	if workers < 1 {
		workers = 1
	}
	return &RedisQueue{
		rdb:     rdb,
		poll:    time.Second,
		workers: workers,
		jobs:    make(chan int, workers),
	}
}

func (q *RedisQueue) Upsert(ctx context.Context, key string, fireAt time.Time) error {
	return q.rdb.ZAdd(ctx, scheduleSet, redis.Z{
		Score:  float64(fireAt.Unix()),
		Member: key,
	}).Err()
}

func (q *RedisQueue) Cancel(ctx context.Context, key string) error {
	return q.rdb.ZRem(ctx, scheduleSet, key).Err()
}

// Start launches the worker pool and the due-task poller. Both stop
// when ctx is cancelled.
func (q *RedisQueue) Start(ctx context.Context, handler Handler) {
	for i := 0; i < q.workers; i++ {
		go q.worker(ctx, i, handler)
	}
	go q.run(ctx)
}

func (q *RedisQueue) worker(ctx context.Context, id int, handler Handler) {
	log.Debug().Int("worker", id).Msg("render worker started")
	for {
		select {
		case deviceID := <-q.jobs:
			handler(ctx, deviceID)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("render worker shutting down")
			return
		}
	}
}

func (q *RedisQueue) run(ctx context.Context) {
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			q.dispatchDue(ctx, time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// dispatchDue claims every member whose score has passed. ZRem is the
// claim: only the caller that actually removed the member dispatches
// it, so concurrent pollers never double-fire a task.
func (q *RedisQueue) dispatchDue(ctx context.Context, now time.Time) {
	due, err := q.rdb.ZRangeByScore(ctx, scheduleSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: formatScore(now),
	}).Result()
	if err != nil {
		log.Error().Err(err).Msg("[tasks] failed to read due tasks")
		return
	}
	for _, key := range due {
		removed, err := q.rdb.ZRem(ctx, scheduleSet, key).Result()
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("[tasks] failed to claim task")
			continue
		}
		if removed == 0 {
			continue
		}
		deviceID, err := DeviceIDFromKey(key)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("[tasks] dropping malformed task")
			continue
		}
		select {
		case q.jobs <- deviceID:
		case <-ctx.Done():
			return
		}
	}
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
