package kernel

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// EmbeddingGateway produces dense and sparse vector representations of text,
// per spec §4.3/§4.4. Concrete adapters live under internal/search; this is
// the seam the search engine depends on so the upstream model provider is
// swappable and mockable in tests.
type EmbeddingGateway interface {
	Embed(ctx context.Context, text string) (dense []float32, err error)
	EmbedSparse(ctx context.Context, text string) (terms map[string]float32, err error)
}

// RerankerGateway scores (query, document) pairs with a cross-encoder, per
// spec §4.5's stage X. A reranker failure must soft-fail the hybrid search
// rather than error the whole request (spec invariant).
type RerankerGateway interface {
	Rerank(ctx context.Context, query string, documents []string) (scores []float32, err error)
}

// FetchGateway retrieves a remote resource's bytes during ingestion
// (spec §4.11 pipeline's fetch stage).
type FetchGateway interface {
	Fetch(ctx context.Context, url string) (body []byte, contentType string, err error)
}

// ErrCircuitOpen is the sentinel GatewayBreaker.Call returns in place of
// gobreaker's open-state and too-many-requests errors.
var ErrCircuitOpen = errors.New("upstream circuit open")

// GatewayBreaker wraps any upstream call with a circuit breaker (grounded on
// the teacher's middleware/circuit_breaker.go, generalized from an HTTP
// middleware to a generic call guard) plus capped exponential backoff retry.
// No gateway in this module is wrapped with it: internal/app wires its
// EmbeddingGateway/RerankerGateway/FetchGateway implementations directly.
type GatewayBreaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

type GatewayBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
	MaxAttempts      int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
}

func DefaultGatewayBreakerConfig(name string) GatewayBreakerConfig {
	return GatewayBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
		MaxAttempts:      3,
		BaseDelay:        200 * time.Millisecond,
		MaxDelay:         5 * time.Second,
	}
}

func NewGatewayBreaker(cfg GatewayBreakerConfig, logger *zap.Logger) *GatewayBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &GatewayBreaker{
		name: cfg.Name, breaker: cb, logger: logger,
		maxAttempts: cfg.MaxAttempts, baseDelay: cfg.BaseDelay, maxDelay: cfg.MaxDelay,
	}
}

// Call executes fn under the circuit breaker with capped exponential backoff
// retry with jitter. Context cancellation aborts immediately.
func (g *GatewayBreaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := g.backoffDelay(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		_, err := g.breaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ErrCircuitOpen
		}
		lastErr = err
		g.logger.Debug("gateway call failed, will retry",
			zap.String("breaker", g.name), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return lastErr
}

func (g *GatewayBreaker) backoffDelay(attempt int) time.Duration {
	d := float64(g.baseDelay) * math.Pow(2, float64(attempt-1))
	if d > float64(g.maxDelay) {
		d = float64(g.maxDelay)
	}
	jitter := 1 + (rand.Float64()-0.5)*0.2
	return time.Duration(d * jitter)
}

// State reports the breaker's current state name, surfaced on the
// monitoring endpoint.
func (g *GatewayBreaker) State() string {
	return g.breaker.State().String()
}
