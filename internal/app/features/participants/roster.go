// internal/app/features/participants/roster.go
package participants

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// rosterRow is one participant as shown in the roster, with the
// normalized capability keys spelled out.
type rosterRow struct {
	ID           primitive.ObjectID  `json:"id"`
	UserID       *primitive.ObjectID `json:"user_id,omitempty"`
	ContactID    *primitive.ObjectID `json:"contact_id,omitempty"`
	Role         string              `json:"role"`
	Capabilities []string            `json:"capabilities"`
}

func toRosterRow(p models.ExchangeParticipant) rosterRow {
	row := rosterRow{
		ID:        p.ID,
		UserID:    p.UserID,
		ContactID: p.ContactID,
		Role:      p.Role,
	}
	if caps, ok := p.Permissions.(capability.Set); ok {
		for _, k := range caps.GrantedKeys() {
			row.Capabilities = append(row.Capabilities, string(k))
		}
	}
	return row
}

// ServeRoster handles GET /exchanges/{id}/participants. Requires the
// can_view_participants capability on that exchange; callers without it
// get the same 404 as a nonexistent exchange.
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
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
		h.Log.Error("roster capability check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	rows, err := h.Participants.ListByExchange(ctx, exchangeID)
	if err != nil {
		h.Log.Error("roster load failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]rosterRow, 0, len(rows))
	for _, p := range rows {
		out = append(out, toRosterRow(p))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"participants": out})
}
