// Package response centralizes HTTP response writing: the JSON encoder used
// by every handler and the mapping from internal/errorkit's abstract error
// kinds to HTTP status codes and the normalized error envelope (spec §7).
// Grounded on the teacher's errors.ErrorHandler, which performs the same
// kind-to-status mapping and centralized logging, but adapted to Neo
// Alexandria's own errorkit.Kind taxonomy instead of the teacher's
// ErrorType/UnifiedError.
package response

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"neo-alexandria/internal/errorkit"
)

// Envelope is spec §7's normalized error body: "{detail, error_code,
// timestamp}".
type Envelope struct {
	Detail    string    `json:"detail"`
	ErrorCode string    `json:"error_code"`
	Timestamp time.Time `json:"timestamp"`
}

// JSON writes data as a JSON body with the given status. A nil data value
// writes the status with no body (204-style responses).
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// Handler centralizes error-to-HTTP mapping and logging so handlers never
// hand-roll a status code from an error themselves.
type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

// Error writes the normalized envelope for err, logging at a severity
// derived from its kind (Internal/Degraded are unexpected and logged at
// Error; the rest are ordinary client/upstream conditions logged at Warn).
func (h *Handler) Error(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	e := errorkit.As(err)
	status := statusFor(e.Kind)

	fields := []zap.Field{
		zap.String("kind", string(e.Kind)),
		zap.String("code", e.Code),
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if e.Cause != nil {
		fields = append(fields, zap.Error(e.Cause))
	}
	switch e.Kind {
	case errorkit.Internal, errorkit.Degraded:
		h.logger.Error("request failed", fields...)
	default:
		h.logger.Warn("request failed", fields...)
	}

	JSON(w, status, Envelope{
		Detail:    e.Message,
		ErrorCode: e.Code,
		Timestamp: time.Now().UTC(),
	})
}

// statusFor maps an errorkit.Kind to its HTTP status, per spec §7.
func statusFor(kind errorkit.Kind) int {
	switch kind {
	case errorkit.Validation:
		return http.StatusUnprocessableEntity
	case errorkit.NotFound:
		return http.StatusNotFound
	case errorkit.Conflict:
		return http.StatusConflict
	case errorkit.Upstream:
		return http.StatusBadGateway
	case errorkit.Timeout:
		return http.StatusRequestTimeout
	case errorkit.Degraded:
		return http.StatusOK
	case errorkit.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
