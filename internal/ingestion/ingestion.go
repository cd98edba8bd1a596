// Package ingestion orchestrates the ingest_resource pipeline from spec
// §4.2: create a pending Resource, then fetch -> extract -> derive
// metadata -> persist archive blob -> processing -> enrich -> completed,
// staging domain events and background tasks at each step. Grounded on the
// teacher's CreateNodeOrchestrator (application/commands/handlers), which
// breaks a monolithic create into named steps run inside one
// UnitOfWork and publishes events only after commit.
package ingestion

import (
	"context"
	"time"

	"go.uber.org/zap"

	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
	"neo-alexandria/internal/kernel"
	"neo-alexandria/internal/store/blobstore"
)

// Extractor pulls plain text and bibliographic hints out of a fetched
// document body, per spec §4.2's extract/derive-metadata steps. Concrete
// adapters (HTML readability, PDF text layer, etc.) live outside this
// package; this is the seam the orchestrator depends on.
type Extractor interface {
	Extract(ctx context.Context, body []byte, contentType string) (ExtractedContent, error)
}

// ExtractedContent is everything the extract/derive-metadata steps produce
// from a fetched document.
type ExtractedContent struct {
	Text        string
	Title       string
	Description string
	Creator     string
	Publisher   string
	Language    string
	ResourceType string
	Subjects    []string
}

// Overrides lets the caller of ingest_resource supply known metadata that
// should win over what extraction derives (spec §4.2's optional overrides
// parameter).
type Overrides struct {
	Title       string
	Description string
	Creator     string
	Publisher   string
	Language    string
	ResourceType string
	Subjects    []string
}

func (o Overrides) applyTo(c ExtractedContent) ExtractedContent {
	if o.Title != "" {
		c.Title = o.Title
	}
	if o.Description != "" {
		c.Description = o.Description
	}
	if o.Creator != "" {
		c.Creator = o.Creator
	}
	if o.Publisher != "" {
		c.Publisher = o.Publisher
	}
	if o.Language != "" {
		c.Language = o.Language
	}
	if o.ResourceType != "" {
		c.ResourceType = o.ResourceType
	}
	if len(o.Subjects) > 0 {
		c.Subjects = o.Subjects
	}
	return c
}

// maxIngestAttempts bounds retry of transient fetch/extract failures before
// the resource is marked failed (spec §4.2's "retries transient failures
// with exponential backoff up to max_attempts").
const maxIngestAttempts = 3

// Orchestrator runs the ingest_resource pipeline end to end for one
// resource. A single instance is safe for concurrent use; each call to
// Ingest owns its own UnitOfWork transactions.
type Orchestrator struct {
	repo      resource.Repository
	uowFactory func(ctx context.Context) kernel.UnitOfWork
	bus       *kernel.EventBus
	blobs     blobstore.Store
	fetch     kernel.FetchGateway
	extract   Extractor
	queue     kernel.TaskQueue
	clock     shared.Clock
	logger    *zap.Logger
}

// NewOrchestrator wires the orchestrator's dependencies. uowFactory
// constructs a fresh UnitOfWork per transactional step, mirroring the
// teacher's per-request uow rather than a shared long-lived one.
func NewOrchestrator(
	repo resource.Repository,
	uowFactory func(ctx context.Context) kernel.UnitOfWork,
	bus *kernel.EventBus,
	blobs blobstore.Store,
	fetch kernel.FetchGateway,
	extract Extractor,
	queue kernel.TaskQueue,
	clock shared.Clock,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		repo: repo, uowFactory: uowFactory, bus: bus, blobs: blobs,
		fetch: fetch, extract: extract, queue: queue, clock: clock, logger: logger,
	}
}

// Ingest implements spec §4.2's ingest_resource: it creates the pending
// Resource row, then runs runPipeline, and returns the id only after those
// steps have finished or failed. It does not return the id before the
// fetch and extract steps run; only the enrichment work it enqueues runs
// later, from the task queue.
func (o *Orchestrator) Ingest(ctx context.Context, url string, overrides Overrides) (shared.ID, error) {
	res, err := resource.NewResource(url, overrides.Title, o.clock)
	if err != nil {
		return "", err
	}

	if err := o.runTransaction(ctx, func(ctx context.Context) error {
		return o.repo.Save(ctx, res)
	}); err != nil {
		return "", err
	}

	id := res.ID()
	if err := o.runPipeline(ctx, id, url, overrides); err != nil {
		o.logger.Warn("ingestion pipeline failed",
			zap.String("resource_id", id.String()), zap.Error(err))
		return id, err
	}
	return id, nil
}

// runPipeline executes fetch -> extract -> persist archive -> processing
// for an already-created resource and enqueues the enrichment tasks; the
// move to completed happens later, in CompleteIfReady. It marks the
// resource failed on any fatal step while keeping whatever partial derived
// data was already saved (spec §4.2's failure-handling invariant).
func (o *Orchestrator) runPipeline(ctx context.Context, id shared.ID, url string, overrides Overrides) error {
	body, contentType, err := o.fetchWithRetry(ctx, url)
	if err != nil {
		return o.fail(ctx, id, err)
	}

	content, err := o.extract.Extract(ctx, body, contentType)
	if err != nil {
		return o.fail(ctx, id, errorkit.Wrap(errorkit.Internal, "extract_failed", "content extraction failed", err))
	}
	content = overrides.applyTo(content)

	archiveKey := "resources/" + id.String() + "/archive.txt"
	if err := o.blobs.Put(ctx, archiveKey, []byte(content.Text), "text/plain"); err != nil {
		return o.fail(ctx, id, errorkit.Wrap(errorkit.Upstream, "archive_put_failed", "archive blob persist failed", err))
	}

	res, err := o.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := o.runTransaction(ctx, func(ctx context.Context) error {
		if err := res.Transition(resource.StatusProcessing, o.clock); err != nil {
			return err
		}
		res.ApplyEnrichment(content.Description, content.Creator, content.Publisher,
			content.Language, content.ResourceType, content.Subjects, o.clock)
		return o.repo.Save(ctx, res)
	}); err != nil {
		return o.fail(ctx, id, err)
	}

	if err := o.enqueueEnrichmentTasks(ctx, id); err != nil {
		o.logger.Warn("failed to enqueue one or more enrichment tasks",
			zap.String("resource_id", id.String()), zap.Error(err))
	}

	return nil
}

// fetchWithRetry retries a transient fetch failure with the task queue's
// standard exponential backoff, bounded by maxIngestAttempts (spec §4.2).
func (o *Orchestrator) fetchWithRetry(ctx context.Context, url string) ([]byte, string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxIngestAttempts; attempt++ {
		body, contentType, err := o.fetch.Fetch(ctx, url)
		if err == nil {
			return body, contentType, nil
		}
		lastErr = err
		kitErr := errorkit.As(err)
		if !kitErr.Retryable || attempt == maxIngestAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(kernel.Backoff(attempt)):
		}
	}
	return nil, "", errorkit.Wrap(errorkit.Upstream, "fetch_failed", "resource fetch failed", lastErr).WithRetryable(true)
}

// fail transitions the resource to failed status, recording the cause, and
// returns the original error so the caller can surface it. Whatever
// description/creator/subjects were already saved before the fatal step
// are left untouched (spec §4.2: "independently-valid partial derived
// data is retained").
func (o *Orchestrator) fail(ctx context.Context, id shared.ID, cause error) error {
	res, loadErr := o.repo.FindByID(ctx, id)
	if loadErr != nil {
		return cause
	}
	_ = o.runTransaction(ctx, func(ctx context.Context) error {
		if res.Status() == resource.StatusPending {
			if err := res.Transition(resource.StatusProcessing, o.clock); err != nil {
				return err
			}
		}
		if err := res.Transition(resource.StatusFailed, o.clock); err != nil {
			return err
		}
		return o.repo.Save(ctx, res)
	})
	return cause
}

// enqueueEnrichmentTasks schedules the background work the pipeline's
// enrich stage fans out to, per spec §4.12's routing table: embeddings,
// classification, quality scoring, lexical/graph index updates, and
// citation extraction.
func (o *Orchestrator) enqueueEnrichmentTasks(ctx context.Context, id shared.ID) error {
	taskTypes := []string{
		kernel.TaskEmbeddingRegenerate,
		kernel.TaskClassifyResource,
		kernel.TaskQualityRecompute,
		kernel.TaskLexicalUpdateIndex,
		kernel.TaskGraphUpdateEdges,
		kernel.TaskCitationExtract,
	}
	var firstErr error
	for _, t := range taskTypes {
		task := kernel.NewTask(t, map[string]any{"resource_id": id.String()}, o.clock.Now())
		if err := o.queue.Enqueue(ctx, task); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (o *Orchestrator) runTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	uow := o.uowFactory(ctx)
	return kernel.WithTransaction(ctx, uow, o.bus, fn)
}

// CompleteIfReady transitions a resource from processing to completed once
// both its dense and sparse vectors are set. The enrich stage's tasks
// (embedding.regenerate et al.) run independently and in any order, so
// completion is driven from whichever task handler observes both vectors
// present after its own write, not from this orchestrator's own pipeline
// run (spec §4.2's "processing -> enrich -> completed" happens across
// several asynchronous task completions, not in one request).
func (o *Orchestrator) CompleteIfReady(ctx context.Context, id shared.ID) error {
	res, err := o.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if res.Status() != resource.StatusProcessing || !(res.HasDenseVector() && res.HasSparseVector()) {
		return nil
	}
	return o.runTransaction(ctx, func(ctx context.Context) error {
		if err := res.Transition(resource.StatusCompleted, o.clock); err != nil {
			return err
		}
		return o.repo.Save(ctx, res)
	})
}
