// internal/app/features/admin/routes.go
package admin

import (
	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/system/auth"
	"github.com/provident1031/exchangehub/internal/domain/models"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Post("/reconcile", h.HandleReconcile)
		pr.Get("/identity/{user_id}", h.HandleIdentityLookup)
	})

	return r
}
