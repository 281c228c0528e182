// internal/app/features/userinfo/handler.go
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/provident1031/exchangehub/internal/app/system/auth"
)

// Handler serves identity information for authenticated sessions.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo returns JSON with the current user's authentication
// status and identity, including the contact link when reconciliation
// has made one.
//
// Response format:
//
//	{ "isAuthenticated": bool, "name": "...", "email": "...",
//	  "role": "...", "contact_id": "..." }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := auth.CurrentUser(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isAuthenticated": false,
			"name":            "",
			"email":           "",
			"role":            "",
			"contact_id":      "",
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"isAuthenticated": true,
		"name":            user.Name,
		"email":           user.Email,
		"role":            user.Role,
		"contact_id":      user.ContactID,
	})
}
