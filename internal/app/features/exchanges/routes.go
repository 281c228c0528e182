// internal/app/features/exchanges/routes.go
package exchanges

import (
	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/features/invitations"
	"github.com/provident1031/exchangehub/internal/app/features/participants"
	"github.com/provident1031/exchangehub/internal/app/system/auth"
	"github.com/provident1031/exchangehub/internal/domain/models"
)

// Routes serves everything under /exchanges. The participant and
// invitation handlers are shared with their own feature routers; the
// exchange-scoped endpoints live here so {id} resolves in one place.
func Routes(h *Handler, ph *participants.Handler, ih *invitations.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		// LIST (visibility-scoped)
		pr.Get("/", h.ServeExchangeList)

		// DIRECTORY (admin, keyset paged)
		pr.With(auth.RequireRole(models.RoleAdmin)).
			Get("/directory", h.ServeDirectory)

		// CREATE
		pr.With(auth.RequireRole(models.RoleAdmin, models.RoleCoordinator)).
			Post("/", h.HandleCreateExchange)

		// VIEW
		pr.Get("/{id}", h.ServeExchangeView)

		// PARTICIPANTS
		pr.Get("/{id}/participants", ph.ServeRoster)
		pr.Post("/{id}/participants", ph.HandleAddParticipant)

		// INVITATIONS
		pr.Get("/{id}/invitations", ih.ServeInvitationList)
		pr.Post("/{id}/invitations", ih.HandleCreateInvitation)
	})

	return r
}
