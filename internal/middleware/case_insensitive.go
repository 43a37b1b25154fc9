package middleware

import (
	"net/http"
	"strings"
)

// CaseInsensitiveMiddleware lowercases /api paths so that /API/Search and
// /api/search reach the same handler. Other paths are left untouched.
func CaseInsensitiveMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lower := strings.ToLower(r.URL.Path); lower == "/api" || strings.HasPrefix(lower, "/api/") {
			r.URL.Path = lower
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}
