package middleware

import (
	"net/http"

	"github.com/google/uuid"

	appctx "github.com/govai-bd/govai/internal/pkg/context"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID propagates or assigns a request ID and stores it, together with
// the client address, on the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := appctx.WithRequestID(r.Context(), id)
		ctx = appctx.WithClientAddr(ctx, ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
