// internal/app/features/invitations/create.go
package invitations

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/htmlsanitize"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createInvitationRequest struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// HandleCreateInvitation handles POST /exchanges/{id}/invitations.
// Requires can_manage_participants on the exchange. The free-text
// message is sanitized before storage.
func (h *Handler) HandleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.Identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)

	exchangeID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	allowed, err := h.Engine.HasCapability(ctx, identity, exchangeID, capability.ManageParticipants)
	if err != nil {
		h.Log.Error("invitation capability check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	inv, err := h.Invitations.Create(ctx, exchangeID, req.Email, req.Role,
		htmlsanitize.Sanitize(req.Message), uid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Log.Info("invitation created",
		zap.String("invitation_id", inv.ID.Hex()),
		zap.String("exchange_id", exchangeID.Hex()),
		zap.String("role", inv.Role))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(inv)
}

// ServeInvitationList handles GET /exchanges/{id}/invitations.
func (h *Handler) ServeInvitationList(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.Identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	exchangeID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := h.Engine.HasCapability(ctx, identity, exchangeID, capability.ViewParticipants)
	if err != nil {
		h.Log.Error("invitation list capability check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	list, err := h.Invitations.ListByExchange(ctx, exchangeID)
	if err != nil {
		h.Log.Error("invitation list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"invitations": list})
}
