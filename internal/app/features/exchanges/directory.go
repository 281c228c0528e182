// internal/app/features/exchanges/directory.go
package exchanges

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/provident1031/exchangehub/internal/app/system/paging"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ServeDirectory handles GET /exchanges/directory: the keyset-paged
// admin listing of every exchange, newest cursor semantics on name_ci.
// Role gating happens in the route middleware; this handler only pages.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	status := query.Get(r, "status")
	before := query.Get(r, "before")
	after := query.Get(r, "after")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cfg := paging.ConfigureKeyset(before, after)

	clauses := []bson.M{}
	if status != "" {
		clauses = append(clauses, bson.M{"status": status})
	}
	if win := cfg.KeysetWindow("name_ci"); win != nil {
		clauses = append(clauses, win)
	}
	filter := bson.M{}
	switch len(clauses) {
	case 1:
		filter = clauses[0]
	default:
		if len(clauses) > 1 {
			filter = bson.M{"$and": clauses}
		}
	}

	find := options.Find()
	cfg.ApplyToFind(find, "name_ci")

	rows, err := h.Exchanges.Find(ctx, filter, find)
	if err != nil {
		h.Log.Error("directory query failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	page := paging.TrimPage(&rows, before, after)

	prev, next := paging.BuildCursors(rows,
		func(e models.Exchange) string { return e.NameCI },
		func(e models.Exchange) primitive.ObjectID { return e.ID },
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"exchanges": rows,
		"has_prev":  page.HasPrev,
		"has_next":  page.HasNext,
		"prev":      prev,
		"next":      next,
	})
}
