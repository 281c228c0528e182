// internal/app/features/invitations/routes.go
package invitations

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/system/auth"
	"github.com/provident1031/exchangehub/internal/app/system/ratelimit"
)

// Routes serves the token-addressed operations, mounted at
// /invitations. Creation and listing are exchange-scoped and live on
// the exchanges router, which shares this handler.
//
// Token endpoints are rate limited: tokens are unguessable, but the
// limiter keeps a leaked-or-scanning client from probing them freely.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	limiter := ratelimit.NewTokenLimiter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Route("/{token}", func(tr chi.Router) {
			tr.Use(tokenRateLimit(limiter))
			tr.Post("/accept", h.HandleAccept)
			tr.Post("/cancel", h.HandleCancel)
		})
	})

	return r
}

// tokenRateLimit rejects requests over the per-IP or per-token budget
// with 429. It runs inside the {token} route so the URL param is set.
func tokenRateLimit(limiter *ratelimit.TokenLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := chi.URLParam(r, "token")
			if ok, reason := limiter.Check(r, token); !ok {
				http.Error(w, reason, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
