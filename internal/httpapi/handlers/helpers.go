// Package handlers implements the REST surface of spec §6: one handler
// struct per resource group, each thin — decode, validate, call into the
// wired app.Container, translate the domain result to a dto type, respond.
// Grounded on the teacher's interfaces/http/rest/handlers package (one
// handler struct per aggregate, constructor-injected dependencies, a
// shared decode/validate/respond helper set), adapted from the teacher's
// command/query-bus dispatch to direct calls against Neo Alexandria's
// Container, which has no CQRS bus of its own.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
	"neo-alexandria/internal/httpapi/response"
)

var validate = validator.New()

// decode parses the JSON request body into dst and runs validator tags
// over it, mirroring the teacher's utils.ValidateStruct step.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errorkit.New(errorkit.Validation, "bad_request_body", "request body is not valid JSON")
	}
	if err := validate.Struct(dst); err != nil {
		return errorkit.New(errorkit.Validation, "validation_failed", err.Error())
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryFloat(r *http.Request, key string) *float64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func queryBool(r *http.Request, key string, def bool) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func queryTime(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

func queryList(r *http.Request, key string) []string {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// clampLimit applies spec §6's "limit 1-100, default 25" rule uniformly
// across every paginated listing endpoint.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func parseID(raw string) (shared.ID, error) {
	if raw == "" {
		return "", errorkit.New(errorkit.Validation, "missing_id", "id is required")
	}
	return shared.ID(raw), nil
}

// writeError is a package-level convenience so handlers don't each hold a
// *response.Handler reference just to report an error.
func writeError(h *response.Handler, w http.ResponseWriter, r *http.Request, err error) {
	h.Error(w, r, err)
}
