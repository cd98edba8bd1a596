// Package app wires every module the spec names into one running
// instance: the embedded-dialect stores, the search indices, the
// ingestion pipeline, and the gateways that stand in for external model
// and fetch services. Grounded on the teacher's infrastructure/di
// container, which owns exactly this kind of "construct everything once,
// hand out interfaces" wiring.
package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"neo-alexandria/internal/config"
	"neo-alexandria/internal/domain/citation"
	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/graph"
	"neo-alexandria/internal/ingestion"
	"neo-alexandria/internal/kernel"
	"neo-alexandria/internal/search/dense"
	"neo-alexandria/internal/search/hybrid"
	"neo-alexandria/internal/search/lexical"
	"neo-alexandria/internal/search/sparse"
	"neo-alexandria/internal/store/blobstore"
	"neo-alexandria/internal/store/memory"
)

// Container holds every wired dependency for the embedded deployment
// target. NewEmbeddedContainer is the only constructor: cmd/api and
// cmd/worker always call it and do not read config.Store.Dialect, so the
// server-dialect stores (DynamoDB/Redis/Supabase) are not wired here.
type Container struct {
	Config config.Config
	Clock  shared.Clock
	Logger *zap.Logger

	Bus   *kernel.EventBus
	Cache *kernel.Cache
	Queue kernel.TaskQueue

	ResourceRepo   resource.Repository
	AnnotationRepo *memory.AnnotationRepository
	CollectionRepo *memory.CollectionRepository
	TaxonomyRepo   *memory.TaxonomyRepository
	CitationRepo   citation.Repository

	Blobs blobstore.Store

	Lexical *lexical.Index
	Dense   dense.Index
	Sparse  *sparse.Index

	Embedder  kernel.EmbeddingGateway
	Fetcher   kernel.FetchGateway
	Reranker  kernel.RerankerGateway
	Extractor ingestion.Extractor
	Classify  *KeywordClassifierGateway

	Hybrid *hybrid.Engine
	Graph  *graph.Engine

	Ingestion *ingestion.Orchestrator

	store *memory.Store
}

// NewEmbeddedContainer wires the embedded (in-process) dialect: everything
// lives in one memory.Store, one MemoryTaskQueue, and a brute-force dense
// index. Suited to the single-user, self-hosted deployment target (spec
// §1).
func NewEmbeddedContainer(cfg config.Config, logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := shared.SystemClock{}

	store := memory.NewStore(clock)
	resourceRepo := memory.NewResourceRepository(store)
	annotationRepo := memory.NewAnnotationRepository(store)
	collectionRepo := memory.NewCollectionRepository(store)
	taxonomyRepo := memory.NewTaxonomyRepository(store)
	citationRepo := memory.NewCitationRepository(store)

	bus := kernel.NewEventBus(clock, logger, nil)
	cache := kernel.NewCache(cfg.Cache.EmbeddingCacheSize, clock, logger)
	queue := kernel.NewMemoryTaskQueue(clock)
	blobs := blobstore.NewMemoryStore()

	lex := lexical.NewIndex(lexical.DefaultFieldWeights)
	den := dense.NewExactIndex()
	spr := sparse.NewIndex()

	embedder := NewHashEmbeddingGateway()
	fetcher := NewHTTPFetchGateway(http.DefaultClient)
	reranker := NewLexicalOverlapReranker()
	extractor := NewPlainTextExtractor()
	classify := NewKeywordClassifierGateway(taxonomyRepo.Tree)

	metadata := NewResourceMetadataProvider(resourceRepo)
	searchCfg := hybrid.Config{DefaultHybridWeight: cfg.Search.DefaultHybridWeight}
	hybridEngine := hybrid.NewEngine(lex, den, spr, embedder, reranker, metadata, searchCfg, logger)

	graphStore := memory.NewGraphStore()
	nodeProvider := NewResourceNodeProvider(resourceRepo, den)
	graphWeights := graph.Weights{MinThreshold: cfg.Graph.MinEdgeThreshold}
	graphEngine := graph.NewEngine(nodeProvider, graphStore, graphWeights)

	orchestrator := ingestion.NewOrchestrator(
		resourceRepo,
		func(_ context.Context) kernel.UnitOfWork { return memory.NewUnitOfWork(store) },
		bus, blobs, fetcher, extractor, queue, clock, logger,
	)

	c := &Container{
		Config: cfg, Clock: clock, Logger: logger,
		Bus: bus, Cache: cache, Queue: queue,
		ResourceRepo: resourceRepo, AnnotationRepo: annotationRepo,
		CollectionRepo: collectionRepo, TaxonomyRepo: taxonomyRepo, CitationRepo: citationRepo,
		Blobs: blobs, Lexical: lex, Dense: den, Sparse: spr,
		Embedder: embedder, Fetcher: fetcher, Reranker: reranker, Extractor: extractor, Classify: classify,
		Hybrid: hybridEngine, Graph: graphEngine, Ingestion: orchestrator,
		store: store,
	}
	c.registerEventHandlers()

	if cfg.EventAudit.Enabled {
		if sink, err := NewEventAuditSink(context.Background(), cfg.EventAudit, logger); err != nil {
			logger.Warn("event audit sink disabled: failed to init", zap.Error(err))
		} else {
			registerEventAuditSink(bus, sink)
		}
	}

	return c
}
