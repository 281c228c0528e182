// internal/app/features/exchanges/list.go
package exchanges

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// exchangeView is one exchange as the caller is allowed to see it,
// including the capability keys their identity holds on it.
type exchangeView struct {
	models.Exchange
	Capabilities []string `json:"capabilities"`
}

func grantedStrings(caps capability.Set) []string {
	keys := caps.GrantedKeys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, string(k))
	}
	return out
}

// ServeExchangeList handles GET /exchanges: every exchange visible to
// the caller's identity, with effective capabilities. An empty list is
// a normal answer for a freshly invited user, never an error.
func (h *Handler) ServeExchangeList(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.Identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	visible, err := h.Engine.VisibleExchanges(ctx, identity)
	if err != nil {
		h.Log.Error("visible exchanges failed",
			zap.String("role", identity.Role), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(visible))
	for id := range visible {
		ids = append(ids, id)
	}

	rows, err := h.Exchanges.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("exchange load failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]exchangeView, 0, len(rows))
	for _, e := range rows {
		out = append(out, exchangeView{
			Exchange:     e,
			Capabilities: grantedStrings(visible[e.ID]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameCI < out[j].NameCI })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"exchanges": out})
}
