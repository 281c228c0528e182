// internal/app/features/invitations/cancel.go
package invitations

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	invitationstore "github.com/provident1031/exchangehub/internal/app/store/invitations"
	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"go.uber.org/zap"
)

// HandleCancel handles POST /invitations/{token}/cancel. Requires
// can_manage_participants on the invitation's exchange. Terminal
// invitations refuse with 409; cancel never resurrects or re-expires.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.Identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	token := chi.URLParam(r, "token")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inv, err := h.Invitations.GetByToken(ctx, token)
	if err != nil {
		if err == invitationstore.ErrNotFound {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error("invitation load failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	allowed, err := h.Engine.HasCapability(ctx, identity, inv.ExchangeID, capability.ManageParticipants)
	if err != nil {
		h.Log.Error("cancel capability check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch err := h.Invitations.Cancel(ctx, token); {
	case err == invitationstore.ErrNotPending:
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err == invitationstore.ErrNotFound:
		http.Error(w, "not found", http.StatusNotFound)
		return
	case err != nil:
		h.Log.Error("invitation cancel failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("invitation cancelled",
		zap.String("invitation_id", inv.ID.Hex()),
		zap.String("exchange_id", inv.ExchangeID.Hex()))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "cancelled"})
}
