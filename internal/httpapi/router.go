// Package httpapi assembles the REST surface described in spec §6 on top
// of the application container: request decoding and response shaping live
// in dto/handlers/response, cross-cutting concerns in middleware, and this
// file wires the whole thing onto a chi.Router, grounded on the teacher's
// interfaces/http/rest/router.go.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/httpapi/handlers"
	"neo-alexandria/internal/httpapi/middleware"
	"neo-alexandria/internal/httpapi/response"
)

// Router configures the single-process REST API in front of an
// app.Container. Unlike the teacher, there is no Authenticate() middleware:
// this is a single-user, self-hosted deployment (spec §1), not a
// multi-tenant SaaS, so there is no identity to authenticate against.
type Router struct {
	c      *app.Container
	logger *zap.Logger
}

func NewRouter(c *app.Container, logger *zap.Logger) *Router {
	return &Router{c: c, logger: logger}
}

// Setup builds the full handler tree.
func (rt *Router) Setup() http.Handler {
	resp := response.NewHandler(rt.logger)

	resourceH := handlers.NewResourceHandler(rt.c, resp)
	searchH := handlers.NewSearchHandler(rt.c, resp)
	graphH := handlers.NewGraphHandler(rt.c, resp)
	citationH := handlers.NewCitationHandler(rt.c, resp)
	taxonomyH := handlers.NewTaxonomyHandler(rt.c, resp)
	qualityH := handlers.NewQualityHandler(rt.c, resp)
	recommendH := handlers.NewRecommendHandler(rt.c, resp)
	annotationH := handlers.NewAnnotationHandler(rt.c, resp)
	collectionH := handlers.NewCollectionHandler(rt.c, resp)
	healthH := handlers.NewHealthHandler(rt.c, resp)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.APIVersion("v1"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", healthH.Health)
	router.Route("/monitoring", func(r chi.Router) {
		r.Get("/status", healthH.Status)
		r.Get("/metrics", healthH.Metrics)
		r.Get("/events", healthH.Events)
		r.Get("/events/history", healthH.Events)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/resources", func(r chi.Router) {
			r.Post("/", resourceH.Create)
			r.Get("/", resourceH.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", resourceH.Get)
				r.Put("/", resourceH.Update)
				r.Delete("/", resourceH.Delete)
				r.Get("/status", resourceH.Status)
				r.Post("/quality/recompute", qualityH.Recompute)
				r.Get("/citations", citationH.ListForResource)
				r.Post("/citations/extract", citationH.Extract)
				r.Get("/neighbors", graphH.Neighbors)
				r.Post("/annotations", annotationH.Create)
				r.Get("/annotations", annotationH.List)
			})
		})

		r.Route("/search", func(r chi.Router) {
			r.Post("/", searchH.Search)
			r.Get("/three-way-hybrid", searchH.ThreeWayHybrid)
			r.Get("/compare-methods", searchH.CompareMethods)
			r.Post("/evaluate", searchH.Evaluate)
		})

		r.Route("/graph", func(r chi.Router) {
			r.Get("/resource/{id}/neighbors", graphH.Neighbors)
			r.Get("/overview", graphH.Overview)
		})

		r.Route("/citations", func(r chi.Router) {
			r.Get("/graph/citations", citationH.Graph)
			r.Post("/resolve", citationH.Resolve)
			r.Post("/importance/compute", citationH.ComputeImportance)
			r.Get("/resources/{id}/citations", citationH.ListForResource)
			r.Post("/resources/{id}/citations/extract", citationH.Extract)
		})

		r.Route("/annotations", func(r chi.Router) {
			r.Put("/{id}", annotationH.Update)
			r.Delete("/{id}", annotationH.Delete)
		})

		r.Route("/taxonomy", func(r chi.Router) {
			r.Post("/nodes", taxonomyH.CreateNode)
			r.Get("/tree", taxonomyH.Tree)
			r.Post("/train", taxonomyH.Train)
			r.Route("/active-learning", func(r chi.Router) {
				r.Get("/uncertain", taxonomyH.Uncertain)
				r.Post("/feedback", taxonomyH.Feedback)
			})
			r.Route("/nodes/{id}", func(r chi.Router) {
				r.Put("/", taxonomyH.UpdateNode)
				r.Delete("/", taxonomyH.DeleteNode)
				r.Post("/move", taxonomyH.Move)
			})
		})
		r.Post("/resources/{resource_id}/classify", taxonomyH.Classify)

		r.Route("/quality", func(r chi.Router) {
			r.Get("/outliers", qualityH.Outliers)
		})

		r.Get("/recommendations", recommendH.Recommend)

		r.Route("/collections", func(r chi.Router) {
			r.Post("/", collectionH.Create)
			r.Get("/", collectionH.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", collectionH.Get)
				r.Delete("/", collectionH.Delete)
				r.Post("/members", collectionH.AddMember)
				r.Delete("/members/{resourceID}", collectionH.RemoveMember)
			})
		})
	})

	return router
}
