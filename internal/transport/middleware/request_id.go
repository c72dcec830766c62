package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/questforge/questforge/pkg/ctxutil"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an identifier. An inbound
// X-Request-Id header is trusted if present so clients and proxies can
// correlate logs; otherwise a fresh UUID is generated. The identifier
// is stored in the context and echoed back in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxutil.WithRequestID(r.Context(), id)))
	})
}
