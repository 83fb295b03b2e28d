package http

import (
	"context"
	"net/http"

	"schoolaccounts/internal/auth"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/log"
)

// CallerVerifier turns a bearer token into the acting caller.
type CallerVerifier interface {
	Verify(token string) (*core.Caller, error)
}

var _ CallerVerifier = (*auth.Verifier)(nil)

type callerKey struct{}

// WithCaller stores the authenticated caller in ctx.
func WithCaller(ctx context.Context, c *core.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller set by the auth middleware, or nil.
func CallerFromContext(ctx context.Context) *core.Caller {
	c, _ := ctx.Value(callerKey{}).(*core.Caller)
	return c
}

// requireCaller rejects requests without a valid bearer token.
func requireCaller(v CallerVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context()).WithComponent(log.ComponentAuth)

		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			UnauthorizedError("Unauthorized").Write(w)
			return
		}
		caller, err := v.Verify(token)
		if err != nil {
			logger.WarnContext(r.Context(), "Rejected bearer token",
				log.FieldPath, r.URL.Path,
				log.FieldError, err)
			UnauthorizedError("Unauthorized").Write(w)
			return
		}

		ctx := WithCaller(r.Context(), caller)
		ctx = log.IntoContext(ctx, log.FromContext(ctx).With(
			log.NewFields().WithCaller(caller.ID, string(caller.Role)).ToSlice()...))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
