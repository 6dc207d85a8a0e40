// Package request assigns each request an identifier for log correlation.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"registrar/pkg/requestcontext"
)

const headerRequestID = "X-Request-ID"

// Middleware honors an incoming X-Request-ID or assigns a fresh one, stores
// it in the context, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
