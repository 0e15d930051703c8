// Package requesttime pins one "now" per HTTP request so every timestamp
// written while handling a ping (point, alert, log line) agrees.
package requesttime

import (
	"net/http"
	"time"

	"smartourism/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
