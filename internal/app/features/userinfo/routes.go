// internal/app/features/userinfo/routes.go
package userinfo

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the userinfo endpoint, mounted under
// /api/userinfo. No auth middleware: the handler answers
// isAuthenticated=false for anonymous callers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeUserInfo)
	return r
}
