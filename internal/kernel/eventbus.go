package kernel

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/shared"
)

// Handler is a typed subscriber callback. Handlers must be fast (<100ms
// target per spec §4.12); heavier work belongs in the task queue.
type Handler func(ctx context.Context, event shared.Event) error

// EventBus is an in-process, synchronous pub/sub bus. Emit delivers to every
// subscriber of the event's type, in registration order, in the caller's
// goroutine. A handler panic or error is swallowed and logged so one
// handler cannot break delivery to the next (spec §4.12's "handler
// boundary"). Emit is called by the kernel's transactional store only after
// a successful commit.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[shared.EventType][]namedHandler
	clock    shared.Clock
	logger   *zap.Logger

	metrics busMetrics

	history    []shared.Event
	historyCap int
}

// eventHistoryCap bounds the in-memory recent-events ring buffer backing
// GET /monitoring/events (spec §6): a debugging aid, not an audit log, so
// it need not survive a restart or grow unbounded.
const eventHistoryCap = 200

type namedHandler struct {
	name string
	fn   Handler
}

type busMetrics struct {
	emitted        prometheus.Counter
	handlersCalled prometheus.Counter
	handlerErrors  prometheus.Counter
	latency        prometheus.Histogram
}

func NewEventBus(clock shared.Clock, logger *zap.Logger, reg prometheus.Registerer) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := busMetrics{
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_alexandria", Subsystem: "eventbus", Name: "events_emitted_total",
			Help: "Total events emitted on the bus.",
		}),
		handlersCalled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_alexandria", Subsystem: "eventbus", Name: "handlers_called_total",
			Help: "Total subscriber invocations.",
		}),
		handlerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_alexandria", Subsystem: "eventbus", Name: "handler_errors_total",
			Help: "Total subscriber invocations that returned an error.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neo_alexandria", Subsystem: "eventbus", Name: "delivery_latency_seconds",
			Help:    "Per-subscriber delivery latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.emitted, m.handlersCalled, m.handlerErrors, m.latency)
	}
	return &EventBus{
		handlers:   make(map[shared.EventType][]namedHandler),
		clock:      clock,
		logger:     logger,
		metrics:    m,
		historyCap: eventHistoryCap,
	}
}

// Subscribe registers handler under name for the given event type. Explicit
// registration, no magic decorator-based subscription (design note §9).
func (b *EventBus) Subscribe(typ shared.EventType, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[typ] = append(b.handlers[typ], namedHandler{name: name, fn: handler})
}

// Emit delivers event to every registered subscriber of its type, in
// registration order, swallowing and logging individual handler errors.
func (b *EventBus) Emit(ctx context.Context, event shared.Event) {
	b.mu.Lock()
	subs := append([]namedHandler(nil), b.handlers[event.Type]...)
	b.history = append(b.history, event)
	if len(b.history) > b.historyCap {
		b.history = b.history[len(b.history)-b.historyCap:]
	}
	b.mu.Unlock()

	b.metrics.emitted.Inc()
	for _, sub := range subs {
		start := time.Now()
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.metrics.handlerErrors.Inc()
					b.logger.Error("event handler panicked",
						zap.String("handler", sub.name), zap.String("event_type", string(event.Type)),
						zap.Any("recover", r))
				}
			}()
			b.metrics.handlersCalled.Inc()
			if err := sub.fn(ctx, event); err != nil {
				b.metrics.handlerErrors.Inc()
				b.logger.Warn("event handler error",
					zap.String("handler", sub.name), zap.String("event_type", string(event.Type)), zap.Error(err))
			}
		}()
		b.metrics.latency.Observe(time.Since(start).Seconds())
	}
}

// SubscriberCount reports the number of handlers registered for typ, used by
// tests asserting spec invariant 5 (no lost deliveries).
func (b *EventBus) SubscriberCount(typ shared.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[typ])
}

// RecentEvents returns up to limit of the most recently emitted events,
// newest last. limit <= 0 returns the full retained history.
func (b *EventBus) RecentEvents(limit int) []shared.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if limit <= 0 || limit >= len(b.history) {
		return append([]shared.Event(nil), b.history...)
	}
	return append([]shared.Event(nil), b.history[len(b.history)-limit:]...)
}
