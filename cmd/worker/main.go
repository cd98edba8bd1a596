package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/config"
	"neo-alexandria/internal/kernel"
	"neo-alexandria/internal/observability"
)

// workerConcurrency is the number of goroutines draining the task queue.
// There is no per-deployment tunable for this yet (see DESIGN.md).
const workerConcurrency = 4

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, cfg.Environment)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracing shutdown error", zap.Error(err))
		}
	}()

	container := app.NewEmbeddedContainer(cfg, logger)

	logger.Info("starting worker service",
		zap.String("environment", cfg.Environment),
		zap.Int("concurrency", workerConcurrency),
	)

	var wg sync.WaitGroup
	for i := 0; i < workerConcurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorkerLoop(ctx, id, container, logger)
		}(i)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down worker service...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		logger.Warn("worker shutdown timeout exceeded")
	}

	log.Println("worker service stopped")
}

// runWorkerLoop dequeues and dispatches tasks until ctx is canceled. A
// handler error reschedules the task with backoff (or dead-letters it once
// attempts are exhausted) per spec §4.12 — Fail/Complete bookkeeping lives
// in the TaskQueue implementation, not here.
func runWorkerLoop(ctx context.Context, id int, c *app.Container, logger *zap.Logger) {
	queues := kernel.AllQueuesByPriority()
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := c.Queue.Dequeue(ctx, queues)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			logger.Error("dequeue failed", zap.Int("worker", id), zap.Error(err))
			continue
		}
		if task == nil {
			continue
		}

		if err := c.Dispatch(ctx, *task); err != nil {
			logger.Warn("task failed", zap.Int("worker", id), zap.String("type", task.Type), zap.String("task_id", task.ID), zap.Error(err))
			if failErr := c.Queue.Fail(ctx, task.ID, err); failErr != nil {
				logger.Error("failed to record task failure", zap.String("task_id", task.ID), zap.Error(failErr))
			}
			continue
		}
		if err := c.Queue.Complete(ctx, task.ID); err != nil {
			logger.Error("failed to mark task complete", zap.String("task_id", task.ID), zap.Error(err))
		}
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Logging.Format == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
