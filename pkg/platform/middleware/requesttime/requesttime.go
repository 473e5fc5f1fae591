// Package requesttime pins a single "now" for the whole request so document
// expiry checks, audit timestamps and score stamps agree.
package requesttime

import (
	"net/http"
	"time"

	"talaty/pkg/requestcontext"
)

// New stamps every request with clock(), truncated to microseconds and in
// UTC so it survives a round trip through Postgres unchanged.
func New(clock func() time.Time) func(http.Handler) http.Handler {
	if clock == nil {
		clock = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := clock().UTC().Truncate(time.Microsecond)
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), now)))
		})
	}
}
