package middleware

import (
	"context"
	"net/http"
	"strings"

	"swiftdrop/internal/auth"
	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
)

type actorKey struct{}

// ActorFrom extracts the authenticated actor from the request context. The
// second return is false on routes that skipped the Authenticate middleware.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(domain.Actor)
	return a, ok
}

// WithActor returns a context carrying the given actor. Exported for tests.
func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// Authenticate verifies the bearer token and stores the actor in the
// request context. Requests without a valid token are rejected with 401.
func Authenticate(tokens *auth.Manager, logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				logger.Debug("auth: token rejected", logx.Err(err))
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), claims.Actor())))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}
