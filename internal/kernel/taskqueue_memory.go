package kernel

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"neo-alexandria/internal/domain/shared"
)

// MemoryTaskQueue is the embedded-dialect TaskQueue: an in-process priority
// queue keyed by (priority desc, earliest_run_at asc, sequence asc), backed
// by container/heap since no pack library targets an in-memory durable
// priority queue — this is core queue-discipline logic, not ambient
// plumbing.
type MemoryTaskQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending taskHeap
	byID    map[string]*Task
	dead    map[string]*Task
	running map[string]*Task
	seq     uint64
	clock   shared.Clock
}

func NewMemoryTaskQueue(clock shared.Clock) *MemoryTaskQueue {
	q := &MemoryTaskQueue{
		byID:    make(map[string]*Task),
		dead:    make(map[string]*Task),
		running: make(map[string]*Task),
		clock:   clock,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	if !h[i].EarliestRunAt.Equal(h[j].EarliestRunAt) {
		return h[i].EarliestRunAt.Before(h[j].EarliestRunAt)
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (q *MemoryTaskQueue) Enqueue(_ context.Context, task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task.ID == "" {
		task.ID = shared.NewID().String()
	}
	if task.Status == "" {
		task.Status = TaskQueued
	}
	if task.MaxAttempts == 0 {
		task.MaxAttempts = 3
	}
	q.seq++
	t := task
	t.seq = q.seq
	q.byID[t.ID] = &t
	heap.Push(&q.pending, &t)
	q.cond.Broadcast()
	return nil
}

func (q *MemoryTaskQueue) Dequeue(ctx context.Context, queues []string) (*Task, error) {
	allowed := make(map[string]bool, len(queues))
	for _, qn := range queues {
		allowed[qn] = true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if t := q.popReadyLocked(allowed); t != nil {
			return t, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		waitCh := make(chan struct{})
		go func() {
			q.cond.L.Lock()
			q.cond.Wait()
			q.cond.L.Unlock()
			close(waitCh)
		}()
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			q.mu.Lock()
			return nil, ctx.Err()
		case <-waitCh:
		case <-time.After(200 * time.Millisecond):
		}
		q.mu.Lock()
	}
}

// popReadyLocked scans the heap for the best ready (earliest_run_at <= now)
// task among allowed queues. Must hold q.mu.
func (q *MemoryTaskQueue) popReadyLocked(allowed map[string]bool) *Task {
	now := q.clock.Now()
	var best *Task
	var bestIdx int
	for i, t := range q.pending {
		if len(allowed) > 0 && !allowed[t.Queue] {
			continue
		}
		if t.EarliestRunAt.After(now) {
			continue
		}
		if best == nil || taskHeap{t, best}.Less(0, 1) {
			best = t
			bestIdx = i
		}
	}
	if best == nil {
		return nil
	}
	heap.Remove(&q.pending, bestIdx)
	best.Status = TaskRunning
	best.Attempts++
	q.running[best.ID] = best
	cp := *best
	return &cp
}

func (q *MemoryTaskQueue) Complete(_ context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.running[taskID]; ok {
		t.Status = TaskSucceeded
		delete(q.running, taskID)
	}
	return nil
}

func (q *MemoryTaskQueue) Fail(_ context.Context, taskID string, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.running[taskID]
	if !ok {
		return nil
	}
	delete(q.running, taskID)
	if cause != nil {
		t.LastError = cause.Error()
	}
	if t.Attempts >= t.MaxAttempts {
		t.Status = TaskDead
		q.dead[taskID] = t
		return nil
	}
	t.Status = TaskQueued
	t.EarliestRunAt = q.clock.Now().Add(Backoff(t.Attempts))
	q.seq++
	t.seq = q.seq
	heap.Push(&q.pending, t)
	q.cond.Broadcast()
	return nil
}

func (q *MemoryTaskQueue) Stats(_ context.Context) (QueueStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	byQueue := make(map[string]int)
	for _, t := range q.pending {
		byQueue[t.Queue]++
	}
	return QueueStats{
		Queued:  len(q.pending),
		Running: len(q.running),
		Dead:    len(q.dead),
		ByQueue: byQueue,
	}, nil
}
