// Package requesttime provides middleware for request-scoped time, so reads
// and audit enrichment within one HTTP request share a single "now". Inside a
// database transaction this value is superseded by the transaction clock,
// which is authoritative for period-boundary decisions.
package requesttime

import (
	"net/http"
	"time"

	"registrar/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context for consistent time references throughout the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
