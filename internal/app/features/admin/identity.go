// internal/app/features/admin/identity.go
package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/access/identity"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// identityView is the inspection payload for one resolved user.
type identityView struct {
	UserID      string  `json:"user_id"`
	ContactID   *string `json:"contact_id,omitempty"`
	Role        string  `json:"role"`
	ContactHint *string `json:"contact_hint,omitempty"`
}

// HandleIdentityLookup handles GET /admin/identity/{user_id}: resolves
// a user into the canonical access identity, including the unbound
// contact hint when the linkage sweep has work to do. Operators use it
// to answer "why can't this person see their exchange" without reading
// the database by hand.
func (h *Handler) HandleIdentityLookup(w http.ResponseWriter, r *http.Request) {
	uid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "user_id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Identity.Resolve(ctx, identity.Principal{UserID: uid})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error("identity lookup failed", zap.String("user_id", uid.Hex()), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	view := identityView{
		UserID: res.Identity.UserID.Hex(),
		Role:   res.Identity.Role,
	}
	if res.Identity.ContactID != nil {
		s := res.Identity.ContactID.Hex()
		view.ContactID = &s
	}
	if res.ContactHint != nil {
		s := res.ContactHint.Hex()
		view.ContactHint = &s
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}
