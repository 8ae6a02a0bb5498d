package chi

import (
	"net/http"
	"strconv"

	"github.com/kailas-cloud/searchmesh/internal/domain"
	"github.com/kailas-cloud/searchmesh/internal/metrics"
	"github.com/kailas-cloud/searchmesh/internal/usecase/ratelimit"
)

// RateLimitMiddleware returns a middleware that admits or rejects each
// request against the caller's tier quota. Rate-limit headers are set on
// every response so callers can pace themselves before hitting the limit.
func RateLimitMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			id, ok := IdentityFromContext(r.Context())
			if !ok {
				id = anonymous
			}

			d := limiter.Check(id.ID, id.Tier)
			setRateLimitHeaders(w, d)

			if !d.Allowed {
				metrics.RateLimitRejectionsTotal.WithLabelValues(d.Tier).Inc()
				rle := &domain.RateLimitError{
					Limit:      d.Limit,
					Remaining:  d.Remaining,
					ResetAt:    d.ResetAt,
					RetryAfter: d.RetryAfter,
					Tier:       d.Tier,
				}
				rateLimitHandler(w, rle, safeDomainMessage(rle))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}
