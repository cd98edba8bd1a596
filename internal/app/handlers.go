package app

import (
	"context"

	"go.uber.org/zap"

	"neo-alexandria/internal/citationgraph"
	"neo-alexandria/internal/classifier"
	"neo-alexandria/internal/domain/citation"
	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/kernel"
	"neo-alexandria/internal/quality"
	"neo-alexandria/internal/search/lexical"
	"neo-alexandria/internal/search/sparse"
)

// registerEventHandlers wires the event-bus subscriptions a running
// instance needs outside the task queue: cache invalidation on every
// resource mutation, mirroring the teacher's event-driven cache-bust
// pattern rather than TTL-only expiry.
func (c *Container) registerEventHandlers() {
	invalidate := func(_ context.Context, event shared.Event) error {
		id, _ := event.Payload["resource_id"].(string)
		if id != "" {
			c.Cache.Delete("resource:" + id)
			c.Cache.Delete("graph_neighbors:" + id)
		}
		return nil
	}
	c.Bus.Subscribe(shared.EventResourceUpdated, "cache.invalidate.updated", invalidate)
	c.Bus.Subscribe(shared.EventResourceDeleted, "cache.invalidate.deleted", invalidate)
	c.Bus.Subscribe(shared.EventResourceQualityScored, "cache.invalidate.quality", invalidate)
	c.Bus.Subscribe(shared.EventResourceClassified, "cache.invalidate.classified", invalidate)
	c.Bus.Subscribe(shared.EventResourceDeleted, "resource.cascade_delete", c.handleResourceDeletedCascade)
}

// handleResourceDeletedCascade severs every other module's reference to a
// deleted resource (spec §3/§8): it drops the resource from any collection
// that contains it, deletes its annotations, removes its own outgoing
// citations and clears target_resource_id on citations that point at it,
// drops its graph edges, and removes it from every search index. The
// Resource row itself is already gone by the time this runs — ResourceHandler
// deletes it before emitting EventResourceDeleted.
func (c *Container) handleResourceDeletedCascade(ctx context.Context, event shared.Event) error {
	idStr, _ := event.Payload["resource_id"].(string)
	if idStr == "" {
		return nil
	}
	id := shared.ID(idStr)

	collections, err := c.CollectionRepo.ListContaining(ctx, id)
	if err != nil {
		return err
	}
	for _, coll := range collections {
		vectors := make(map[shared.ID][]float32, len(coll.Members()))
		for _, memberID := range coll.Members() {
			if memberID == id {
				continue
			}
			if vec, ok, err := c.Dense.Get(ctx, memberID); err == nil && ok {
				vectors[memberID] = vec
			}
		}
		coll.RemoveMember(id, vectors, c.Clock)
		if err := c.CollectionRepo.Save(ctx, coll); err != nil {
			return err
		}
	}

	if err := c.AnnotationRepo.DeleteByResource(ctx, id); err != nil {
		return err
	}
	if err := c.CitationRepo.DeleteBySource(ctx, id); err != nil {
		return err
	}
	if err := c.CitationRepo.UnresolveByTarget(ctx, id); err != nil {
		return err
	}
	if err := c.Graph.RemoveNode(ctx, id); err != nil {
		return err
	}
	if err := c.Dense.Delete(ctx, id); err != nil {
		return err
	}
	c.Sparse.Delete(id)
	c.Lexical.Delete(id)
	return nil
}

// Dispatch routes one dequeued task to its handler, per spec §4.12's
// routing table. Handlers are idempotent: re-running one for the same
// resource converges to the same state rather than duplicating work.
func (c *Container) Dispatch(ctx context.Context, task kernel.Task) error {
	id, _ := task.Payload["resource_id"].(string)
	switch task.Type {
	case kernel.TaskEmbeddingRegenerate:
		return c.handleEmbeddingRegenerate(ctx, shared.ID(id))
	case kernel.TaskClassifyResource:
		return c.handleClassifyResource(ctx, shared.ID(id))
	case kernel.TaskQualityRecompute:
		return c.handleQualityRecompute(ctx, shared.ID(id))
	case kernel.TaskLexicalUpdateIndex:
		return c.handleLexicalUpdateIndex(ctx, shared.ID(id))
	case kernel.TaskGraphUpdateEdges:
		return c.Graph.RecomputeFor(ctx, shared.ID(id))
	case kernel.TaskCitationExtract:
		return c.handleCitationExtract(ctx, shared.ID(id))
	case kernel.TaskCitationResolve:
		_, err := citationgraph.ResolveUnresolved(ctx, c.CitationRepo, resourceURLLookup{c.ResourceRepo})
		return err
	case kernel.TaskCitationPageRank:
		return c.handleCitationPageRank(ctx)
	case kernel.TaskCacheInvalidate:
		c.Cache.Delete("resource:" + id)
		return nil
	case kernel.TaskRecommendationProfile:
		// Per-user collaborative profiles need an interaction history store
		// this deployment target does not persist yet (see DESIGN.md); the
		// content/graph strategies in internal/recommend run directly off
		// ResourceRepo + Graph at query time instead of a precomputed profile.
		return nil
	default:
		c.Logger.Warn("no handler registered for task type", zap.String("type", task.Type))
		return nil
	}
}

func (c *Container) archiveText(ctx context.Context, id shared.ID) (string, error) {
	body, err := c.Blobs.Get(ctx, "resources/"+id.String()+"/archive.txt")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Container) handleEmbeddingRegenerate(ctx context.Context, id shared.ID) error {
	res, err := c.ResourceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	text, err := c.archiveText(ctx, id)
	if err != nil {
		return err
	}
	denseVec, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return err
	}
	sparseTerms, err := c.Embedder.EmbedSparse(ctx, text)
	if err != nil {
		return err
	}
	if err := c.Dense.Upsert(ctx, id, denseVec); err != nil {
		return err
	}
	sparseVec := make(sparse.Vector, len(sparseTerms))
	for term, weight := range sparseTerms {
		sparseVec[term] = float64(weight)
	}
	c.Sparse.Upsert(id, sparseVec, c.Config.EmbeddingModelName)

	res.SetVectors(true, true, res.ArchiveBlob(), c.Config.EmbeddingModelName, c.Clock)
	if err := c.ResourceRepo.Save(ctx, res); err != nil {
		return err
	}
	return c.Ingestion.CompleteIfReady(ctx, id)
}

func (c *Container) handleClassifyResource(ctx context.Context, id shared.ID) error {
	res, err := c.ResourceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	text, err := c.archiveText(ctx, id)
	if err != nil {
		return err
	}
	predictions, err := classifier.Predict(ctx, c.Classify, text, 1)
	if err != nil {
		return err
	}
	if len(predictions) == 0 {
		return nil
	}
	top := predictions[0]
	res.Classify(top.NodeID.String(), top.ModelVersion, c.Clock)
	return c.ResourceRepo.Save(ctx, res)
}

func (c *Container) handleQualityRecompute(ctx context.Context, id shared.ID) error {
	res, err := c.ResourceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	citations, err := c.CitationRepo.ListBySource(ctx, id)
	if err != nil {
		return err
	}
	var valid int
	for _, cit := range citations {
		if cit.TargetResourceID() != nil {
			valid++
		}
	}
	in := quality.Input{
		TotalCitations:   len(citations),
		ValidCitations:   valid,
		HasTitle:         res.Title() != "",
		HasDescription:   res.Description() != "",
		HasSubject:       len(res.Subjects()) > 0,
		HasCreator:       res.Creator() != "",
		HasPublisher:     res.Publisher() != "",
		HasLanguage:      res.Language() != "",
		HasType:          res.Type() != "",
		IngestedAt:       res.CreatedAt(),
		Now:              c.Clock.Now(),
	}
	weights := quality.Weights{
		Accuracy:     c.Config.Quality.WeightAccuracy,
		Completeness: c.Config.Quality.WeightCompleteness,
		Consistency:  c.Config.Quality.WeightConsistency,
		Timeliness:   c.Config.Quality.WeightTimeliness,
		Relevance:    c.Config.Quality.WeightRelevance,
	}
	dims := quality.Compute(in, weights)
	res.ScoreQuality(resource.QualityDimensions{
		Accuracy: dims.Accuracy, Completeness: dims.Completeness, Consistency: dims.Consistency,
		Timeliness: dims.Timeliness, Relevance: dims.Relevance, Overall: dims.Overall,
	}, c.Clock)
	return c.ResourceRepo.Save(ctx, res)
}

func (c *Container) handleLexicalUpdateIndex(ctx context.Context, id shared.ID) error {
	res, err := c.ResourceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	text, err := c.archiveText(ctx, id)
	if err != nil {
		return err
	}
	c.Lexical.Upsert(id, lexical.Document{Title: res.Title(), Description: res.Description(), Body: text})
	return nil
}

func (c *Container) handleCitationExtract(ctx context.Context, id shared.ID) error {
	text, err := c.archiveText(ctx, id)
	if err != nil {
		return err
	}
	existing, err := c.CitationRepo.ListBySource(ctx, id)
	if err != nil {
		return err
	}
	type citeKey struct {
		url string
		pos int
	}
	seen := make(map[citeKey]struct{}, len(existing))
	for _, cit := range existing {
		seen[citeKey{cit.TargetURL(), cit.Position()}] = struct{}{}
	}
	for _, cand := range citationgraph.ExtractFromText(text) {
		if _, dup := seen[citeKey{cand.TargetURL, cand.Position}]; dup {
			continue
		}
		cit := citation.New(id, cand.TargetURL, cand.Type, cand.ContextSnippet, cand.Position, c.Clock)
		if err := c.CitationRepo.Save(ctx, cit); err != nil {
			return err
		}
	}
	task := kernel.NewTask(kernel.TaskCitationResolve, map[string]any{"resource_id": id.String()}, c.Clock.Now())
	return c.Queue.Enqueue(ctx, task)
}

func (c *Container) handleCitationPageRank(ctx context.Context) error {
	all, err := c.CitationRepo.All(ctx)
	if err != nil {
		return err
	}
	var resolved []*citation.Citation
	for _, cit := range all {
		if cit.TargetResourceID() != nil {
			resolved = append(resolved, cit)
		}
	}
	ranks := citationgraph.PageRank(resolved)
	for id, rank := range ranks {
		c.Cache.Set("citation_rank:"+id.String(), rank, c.Config.Cache.ClassificationTTL)
	}
	return nil
}

// resourceURLLookup adapts ResourceRepo's listing to
// citationgraph.ResourceURLLookup: the embedded dialect has no dedicated
// URL index, so resolution scans the (small, self-hosted-scale) corpus for
// a normalized-origin-URL match.
type resourceURLLookup struct {
	repo resource.Repository
}

func (l resourceURLLookup) FindByNormalizedURL(ctx context.Context, normalizedURL string) (shared.ID, bool, error) {
	cursor := ""
	for {
		page, next, err := l.repo.List(ctx, resource.ListFilter{Cursor: cursor, Limit: 200})
		if err != nil {
			return "", false, err
		}
		for _, res := range page {
			normalized, err := citationgraph.NormalizeURL(res.OriginURL())
			if err == nil && normalized == normalizedURL {
				return res.ID(), true, nil
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return "", false, nil
}
