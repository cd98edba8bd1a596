package kernel

import (
	"context"
	"time"
)

// TaskStatus is the lifecycle state of a queued task (spec §3's Queued task
// entity).
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskDead      TaskStatus = "dead"
)

// Queue names and their priority, per spec §4.12.
const (
	QueueUrgent  = "urgent"       // priority 9
	QueueHigh    = "high_priority" // priority 7
	QueueDefault = "default"       // priority 5 (aka ml_tasks)
	QueueBatch   = "batch"         // priority 3
)

// Standard task type routing keys, spec §4.12.
const (
	TaskEmbeddingRegenerate   = "embedding.regenerate"
	TaskQualityRecompute      = "quality.recompute"
	TaskLexicalUpdateIndex    = "lexical.update_index"
	TaskGraphUpdateEdges      = "graph.update_edges"
	TaskCitationExtract       = "citation.extract"
	TaskCitationResolve       = "citation.resolve"
	TaskCitationPageRank      = "citation.pagerank"
	TaskClassifyResource      = "classify.resource"
	TaskCacheInvalidate       = "cache.invalidate"
	TaskRecommendationProfile = "recommendation.refresh_profile"
)

// DefaultQueueFor maps a task type to its named queue, matching the
// priorities enumerated in spec §4.12.
func DefaultQueueFor(taskType string) string {
	switch taskType {
	case TaskLexicalUpdateIndex, TaskCacheInvalidate:
		return QueueUrgent
	case TaskEmbeddingRegenerate:
		return QueueHigh
	case TaskQualityRecompute, TaskGraphUpdateEdges, TaskClassifyResource,
		TaskCitationExtract, TaskCitationResolve, TaskCitationPageRank:
		return QueueDefault
	case TaskRecommendationProfile:
		return QueueBatch
	default:
		return QueueDefault
	}
}

// DefaultCountdownFor returns the earliest-run delay for a task type per
// spec §4.12.
func DefaultCountdownFor(taskType string) time.Duration {
	switch taskType {
	case TaskLexicalUpdateIndex:
		return 1 * time.Second
	case TaskCacheInvalidate:
		return 0
	case TaskEmbeddingRegenerate:
		return 5 * time.Second
	case TaskQualityRecompute:
		return 10 * time.Second
	case TaskClassifyResource:
		return 20 * time.Second
	case TaskGraphUpdateEdges:
		return 30 * time.Second
	default:
		return 0
	}
}

func priorityFor(queue string) int {
	switch queue {
	case QueueUrgent:
		return 9
	case QueueHigh:
		return 7
	case QueueDefault:
		return 5
	case QueueBatch:
		return 3
	default:
		return 5
	}
}

// Task is a unit of deferred work. Idempotency with respect to (ResourceID,
// logical version) is a contract on the handler, not the queue (spec §5).
type Task struct {
	ID            string
	Type          string
	Queue         string
	Payload       map[string]any
	Priority      int
	EarliestRunAt time.Time
	Attempts      int
	MaxAttempts   int
	Status        TaskStatus
	LastError     string
	CreatedAt     time.Time
	seq           uint64 // FIFO tiebreak within equal priority
}

// NewTask builds a task with the standard routing/backoff defaults for its
// type, ready to enqueue.
func NewTask(taskType string, payload map[string]any, now time.Time) Task {
	queue := DefaultQueueFor(taskType)
	return Task{
		Type:          taskType,
		Queue:         queue,
		Payload:       payload,
		Priority:      priorityFor(queue),
		EarliestRunAt: now.Add(DefaultCountdownFor(taskType)),
		MaxAttempts:   3,
		Status:        TaskQueued,
		CreatedAt:     now,
	}
}

// Backoff computes the exponential backoff delay for attempt N (1-indexed),
// base 10s capped at 10 minutes per spec §4.12.
func Backoff(attempt int) time.Duration {
	d := 10 * time.Second
	for i := 1; i < attempt; i++ {
		d *= 2
		if d > 10*time.Minute {
			return 10 * time.Minute
		}
	}
	return d
}

// TaskHandler processes a task's payload. Returning an error schedules a
// backoff retry (or dead-letters the task once MaxAttempts is exhausted).
// Handlers must be idempotent (spec §5).
type TaskHandler func(ctx context.Context, task Task) error

// TaskQueue is the durable, prioritized background-work contract from
// spec §4.12. Implementations: in-memory (embedded dialect, see
// taskqueue_memory.go) and Redis-backed (server dialect, see
// taskqueue_redis.go, grounded on evalgo-org-eve's queue/redis package).
type TaskQueue interface {
	Enqueue(ctx context.Context, task Task) error
	// Dequeue returns the next ready task from one of queues, highest
	// priority first, FIFO within a priority. It can return (nil, nil) when
	// no task is ready: the Redis queue does so after its 2-second poll.
	Dequeue(ctx context.Context, queues []string) (*Task, error)
	Complete(ctx context.Context, taskID string) error
	// Fail reschedules the task with backoff, or moves it to dead-letter
	// once attempts are exhausted.
	Fail(ctx context.Context, taskID string, cause error) error
	Stats(ctx context.Context) (QueueStats, error)
}

// QueueStats summarizes queue depth for /monitoring/status.
type QueueStats struct {
	Queued    int
	Running   int
	Dead      int
	ByQueue   map[string]int
}

// AllQueuesByPriority lists the four named queues from highest to lowest
// priority, the order workers drain them in.
func AllQueuesByPriority() []string {
	return []string{QueueUrgent, QueueHigh, QueueDefault, QueueBatch}
}
