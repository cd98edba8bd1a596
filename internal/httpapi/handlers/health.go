package handlers

import (
	"net/http"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
)

// HealthHandler serves spec §6's liveness and monitoring surface.
type HealthHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewHealthHandler(c *app.Container, resp *response.Handler) *HealthHandler {
	return &HealthHandler{c: c, resp: resp}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// Status handles GET /monitoring/status: queue depth and cache hit-rate
// snapshots, the operator-facing view of spec §4.12/§4.13's runtime state.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	queueStats, err := h.c.Queue.Stats(r.Context())
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	hits, misses, invalidations := h.c.Cache.Stats()

	response.JSON(w, http.StatusOK, dto.MonitoringStatusResponse{
		Status: "ok",
		QueueStats: map[string]any{
			"queued": queueStats.Queued, "running": queueStats.Running,
			"dead": queueStats.Dead, "by_queue": queueStats.ByQueue,
		},
		CacheStats: map[string]any{
			"hits": hits, "misses": misses, "invalidations": invalidations,
		},
	})
}

// Metrics handles GET /monitoring/metrics with a JSON summary of queue
// and cache counters. The container passes no prometheus.Registerer to
// the event bus, so there is no Prometheus scrape output here (see
// DESIGN.md).
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	queueStats, err := h.c.Queue.Stats(r.Context())
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	hits, misses, _ := h.c.Cache.Stats()
	response.JSON(w, http.StatusOK, map[string]any{
		"queue_queued": queueStats.Queued, "queue_running": queueStats.Running, "queue_dead": queueStats.Dead,
		"cache_hits": hits, "cache_misses": misses,
	})
}

// Events handles GET /monitoring/events[/history]?limit=: the most
// recently emitted domain events, for operators watching the system live.
func (h *HealthHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit := clampLimit(queryInt(r, "limit", 50), 200)
	events := h.c.Bus.RecentEvents(limit)

	out := make([]dto.MonitoringEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, dto.MonitoringEventDTO{
			Type: string(e.Type), Payload: e.Payload, Timestamp: e.EmittedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	response.JSON(w, http.StatusOK, dto.MonitoringEventsResponse{Events: out})
}
