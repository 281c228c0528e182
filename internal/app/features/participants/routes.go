// internal/app/features/participants/routes.go
package participants

import (
	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/system/auth"
)

// Routes serves the row-addressed operations, mounted at /participants.
// The exchange-scoped roster and add endpoints live on the exchanges
// router, which shares this handler.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/{id}/deactivate", h.HandleDeactivate)
	})

	return r
}
