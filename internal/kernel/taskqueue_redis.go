package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"neo-alexandria/internal/domain/shared"
)

// RedisTaskQueue is the server-dialect durable TaskQueue backend: one sorted
// set per named queue, scored by earliest_run_at so ZRANGEBYSCORE naturally
// yields ready, oldest-first tasks; priority is expressed by draining queues
// in AllQueuesByPriority order rather than interleaving scores. Grounded on
// evalgo-org-eve's queue/redis package (Enqueue/Dequeue over RPush/BLPop);
// adapted here to a scored set so delayed ("countdown") tasks and retries
// with backoff are representable without a side channel.
type RedisTaskQueue struct {
	client *redis.Client
	prefix string
	clock  shared.Clock
}

func NewRedisTaskQueue(client *redis.Client, keyPrefix string, clock shared.Clock) *RedisTaskQueue {
	if keyPrefix == "" {
		keyPrefix = "neoalex:queue:"
	}
	return &RedisTaskQueue{client: client, prefix: keyPrefix, clock: clock}
}

func (q *RedisTaskQueue) queueKey(name string) string    { return q.prefix + name }
func (q *RedisTaskQueue) taskKey(id string) string       { return q.prefix + "task:" + id }
func (q *RedisTaskQueue) runningKey() string             { return q.prefix + "running" }
func (q *RedisTaskQueue) deadKey() string                { return q.prefix + "dead" }

func (q *RedisTaskQueue) Enqueue(ctx context.Context, task Task) error {
	if task.ID == "" {
		task.ID = shared.NewID().String()
	}
	if task.Status == "" {
		task.Status = TaskQueued
	}
	if task.MaxAttempts == 0 {
		task.MaxAttempts = 3
	}
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	pipe := q.client.TxPipeline()
	pipe.Set(ctx, q.taskKey(task.ID), raw, 0)
	pipe.ZAdd(ctx, q.queueKey(task.Queue), redis.Z{
		Score:  float64(task.EarliestRunAt.UnixNano()),
		Member: task.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// Dequeue polls the named queues in priority order, popping the
// lowest-scored (earliest_run_at) ready member from the first non-empty
// one.
func (q *RedisTaskQueue) Dequeue(ctx context.Context, queues []string) (*Task, error) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, queueName := range queues {
			now := float64(q.clock.Now().UnixNano())
			members, err := q.client.ZRangeByScore(ctx, q.queueKey(queueName), &redis.ZRangeBy{
				Min: "-inf", Max: fmt.Sprintf("%f", now), Count: 1,
			}).Result()
			if err != nil {
				return nil, err
			}
			if len(members) == 0 {
				continue
			}
			taskID := members[0]
			removed, err := q.client.ZRem(ctx, q.queueKey(queueName), taskID).Result()
			if err != nil || removed == 0 {
				continue // another worker won the race
			}
			task, err := q.loadTask(ctx, taskID)
			if err != nil {
				return nil, err
			}
			task.Status = TaskRunning
			task.Attempts++
			if err := q.saveTask(ctx, task); err != nil {
				return nil, err
			}
			q.client.SAdd(ctx, q.runningKey(), taskID)
			return task, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, nil
}

func (q *RedisTaskQueue) Complete(ctx context.Context, taskID string) error {
	task, err := q.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.Status = TaskSucceeded
	if err := q.saveTask(ctx, task); err != nil {
		return err
	}
	return q.client.SRem(ctx, q.runningKey(), taskID).Err()
}

func (q *RedisTaskQueue) Fail(ctx context.Context, taskID string, cause error) error {
	task, err := q.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	q.client.SRem(ctx, q.runningKey(), taskID)
	if cause != nil {
		task.LastError = cause.Error()
	}
	if task.Attempts >= task.MaxAttempts {
		task.Status = TaskDead
		if err := q.saveTask(ctx, task); err != nil {
			return err
		}
		return q.client.SAdd(ctx, q.deadKey(), taskID).Err()
	}
	task.Status = TaskQueued
	task.EarliestRunAt = q.clock.Now().Add(Backoff(task.Attempts))
	if err := q.saveTask(ctx, task); err != nil {
		return err
	}
	return q.client.ZAdd(ctx, q.queueKey(task.Queue), redis.Z{
		Score: float64(task.EarliestRunAt.UnixNano()), Member: taskID,
	}).Err()
}

func (q *RedisTaskQueue) Stats(ctx context.Context) (QueueStats, error) {
	byQueue := make(map[string]int)
	total := 0
	for _, name := range AllQueuesByPriority() {
		n, err := q.client.ZCard(ctx, q.queueKey(name)).Result()
		if err != nil {
			return QueueStats{}, err
		}
		byQueue[name] = int(n)
		total += int(n)
	}
	running, _ := q.client.SCard(ctx, q.runningKey()).Result()
	dead, _ := q.client.SCard(ctx, q.deadKey()).Result()
	return QueueStats{Queued: total, Running: int(running), Dead: int(dead), ByQueue: byQueue}, nil
}

func (q *RedisTaskQueue) loadTask(ctx context.Context, id string) (*Task, error) {
	raw, err := q.client.Get(ctx, q.taskKey(id)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", id, err)
	}
	var t Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (q *RedisTaskQueue) saveTask(ctx context.Context, t *Task) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return q.client.Set(ctx, q.taskKey(t.ID), raw, 0).Err()
}
