package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/preciousyou/precious-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// incomingRequestID returns the caller-supplied request id, or a fresh
// UUID when the header is absent or blank.
func incomingRequestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(requestIDHeader)); id != "" {
		return id
	}
	return uuid.NewString()
}

// RequestID stamps every response with a request id and threads it into
// the context logger so the whole request shares one correlation key.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := incomingRequestID(r)
			w.Header().Set(requestIDHeader, reqID)

			if logg == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := logg.WithRequestID(r.Context(), reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
