package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/kailas-cloud/searchmesh/internal/domain/tier"
)

// Identity is the authenticated caller: a stable id for rate limiting and
// analytics, plus the tier governing its quota.
type Identity struct {
	ID   string
	Tier tier.Tier
}

type identityCtxKey struct{}

// ContextWithIdentity attaches the caller identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the caller identity set by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// anonymous is the identity used when authentication is disabled.
var anonymous = Identity{ID: "anonymous", Tier: tier.Free}

// BearerAuthMiddleware returns a middleware that resolves Bearer tokens to
// caller identities. If identities is empty, authentication is disabled and
// every request runs as the anonymous free-tier caller.
func BearerAuthMiddleware(identities map[string]Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(identities) == 0 {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), anonymous)))
			})
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt paths
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					codeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			token := auth[len(bearerPrefix):]
			id, ok := identities[token]
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}
