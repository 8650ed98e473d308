// Package requesttime captures one timestamp per request so that every write
// made while serving it (case timestamps, messages, audit entries) agrees.
package requesttime

import (
	"net/http"
	"time"

	"safedesk/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
