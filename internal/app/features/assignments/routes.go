// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/system/auth"
	"github.com/provident1031/exchangehub/internal/domain/models"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Delegation edges are an admin surface only
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeAssignmentList)
		pr.Post("/", h.HandleCreateAssignment)
		pr.Post("/{id}/deactivate", h.HandleDeactivate)
		pr.Post("/{id}/performance", h.HandleSetPerformance)
	})

	return r
}
