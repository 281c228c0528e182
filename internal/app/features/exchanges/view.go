// internal/app/features/exchanges/view.go
package exchanges

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeExchangeView handles GET /exchanges/{id}. A caller without
// visibility gets the same 404 as a nonexistent exchange, so probing
// IDs reveals nothing.
func (h *Handler) ServeExchangeView(w http.ResponseWriter, r *http.Request) {
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

	visible, err := h.Engine.VisibleExchanges(ctx, identity)
	if err != nil {
		h.Log.Error("visibility check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	caps, canSee := visible[exchangeID]
	if !canSee {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	e, err := h.Exchanges.GetByID(ctx, exchangeID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error("exchange load failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(exchangeView{
		Exchange:     *e,
		Capabilities: grantedStrings(caps),
	})
}
