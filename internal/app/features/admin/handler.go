// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/provident1031/exchangehub/internal/app/access/identity"
	"github.com/provident1031/exchangehub/internal/app/access/reconcile"
	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves operator endpoints.
type Handler struct {
	Reconciler *reconcile.Reconciler
	Identity   *identity.Resolver
	Log        *zap.Logger
}

func NewHandler(rec *reconcile.Reconciler, ident *identity.Resolver, logger *zap.Logger) *Handler {
	return &Handler{Reconciler: rec, Identity: ident, Log: logger}
}

// HandleReconcile handles POST /admin/reconcile: runs a full linkage
// sweep on demand and returns the report. The same sweep also runs on a
// schedule; this endpoint exists for operators fixing data now.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	report, err := h.Reconciler.Run(ctx)
	if err != nil {
		h.Log.Error("manual reconcile failed",
			zap.String("requested_by", uid.Hex()), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("manual reconcile complete",
		zap.String("requested_by", uid.Hex()),
		zap.Int("users_linked", report.UsersLinked),
		zap.Int("participants_bound", report.ParticipantsBound))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
