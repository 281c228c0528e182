// internal/app/features/participants/manage.go
package participants

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type addParticipantRequest struct {
	UserID      string `json:"user_id"`
	ContactID   string `json:"contact_id"`
	Role        string `json:"role"`
	Permissions any    `json:"permissions"`
}

// HandleAddParticipant handles POST /exchanges/{id}/participants.
// Requires can_manage_participants on the exchange. Permissions in any
// accepted legacy shape are normalized by the store before the write.
func (h *Handler) HandleAddParticipant(w http.ResponseWriter, r *http.Request) {
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

	var req addParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	target := models.Identity{Role: req.Role}
	if req.UserID != "" {
		uid, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		target.UserID = &uid
	}
	if req.ContactID != "" {
		cid, err := primitive.ObjectIDFromHex(req.ContactID)
		if err != nil {
			http.Error(w, "invalid contact_id", http.StatusBadRequest)
			return
		}
		target.ContactID = &cid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if !h.requireManage(ctx, w, identity, exchangeID) {
		return
	}

	// A user-keyed row should also carry the user's contact link when
	// one exists, so contact-path lookups find it without reconciling.
	// When the caller supplies both keys they must name the same person:
	// a row pairing a user with someone else's contact would grant both
	// people access through one grant, and deactivating it would revoke
	// both at once.
	if target.UserID != nil {
		if u, err := h.Users.GetByID(ctx, *target.UserID); err == nil {
			switch {
			case target.ContactID == nil:
				target.ContactID = u.ContactID
				if req.Role == "" {
					target.Role = u.Role
				}
			case u.ContactID != nil && *u.ContactID != *target.ContactID:
				http.Error(w, "user and contact refer to different people", http.StatusBadRequest)
				return
			}
		}
	}

	created, err := h.Participants.Add(ctx, exchangeID, target, target.Role, req.Permissions)
	switch {
	case err == participantstore.ErrDuplicateParticipant:
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err == participantstore.ErrMissingIdentity:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.Log.Error("participant add failed",
			zap.String("exchange_id", exchangeID.Hex()), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toRosterRow(created))
}

// HandleDeactivate handles POST /participants/{id}/deactivate. The row
// is soft-deleted; its exchange decides who may do this.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.Identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	rowID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	row, err := h.Participants.GetByID(ctx, rowID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error("participant load failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !h.requireManage(ctx, w, identity, row.ExchangeID) {
		return
	}

	if err := h.Participants.Deactivate(ctx, rowID); err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error("participant deactivate failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("participant deactivated",
		zap.String("participant_id", rowID.Hex()),
		zap.String("exchange_id", row.ExchangeID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

// requireManage writes a 404 and returns false unless the identity
// holds can_manage_participants on the exchange. 404, not 403: lack of
// visibility and lack of management rights look identical outside.
func (h *Handler) requireManage(ctx context.Context, w http.ResponseWriter, identity models.Identity, exchangeID primitive.ObjectID) bool {
	allowed, err := h.Engine.HasCapability(ctx, identity, exchangeID, capability.ManageParticipants)
	if err != nil {
		h.Log.Error("manage capability check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return false
	}
	if !allowed {
		http.Error(w, "not found", http.StatusNotFound)
		return false
	}
	return true
}
