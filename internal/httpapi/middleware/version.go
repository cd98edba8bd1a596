package middleware

import "net/http"

// APIVersion tags every response with the current API version. Neo
// Alexandria has shipped only one REST contract so far (spec §6), so there
// is no deprecated predecessor to flag — unlike the teacher's
// versionMiddleware, which also distinguishes v1 from v2.
func APIVersion(version string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-API-Version", version)
			next.ServeHTTP(w, r)
		})
	}
}
