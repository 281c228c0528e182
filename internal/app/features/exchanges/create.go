// internal/app/features/exchanges/create.go
package exchanges

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createExchangeRequest struct {
	Name               string     `json:"name"`
	Status             string     `json:"status"`
	ClientUserID       string     `json:"client_user_id"`
	ClientContactID    string     `json:"client_contact_id"`
	CoordinatorID      string     `json:"coordinator_id"`
	SaleDate           *time.Time `json:"sale_date"`
	IdentificationDate *time.Time `json:"identification_date"`
	CompletionDate     *time.Time `json:"completion_date"`
}

func parseOptionalID(hex string) (*primitive.ObjectID, bool) {
	if hex == "" {
		return nil, true
	}
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, false
	}
	return &oid, true
}

// HandleCreateExchange handles POST /exchanges. Admins and coordinators
// only (route middleware). A coordinator creating an exchange becomes
// its primary coordinator unless the payload names another.
func (h *Handler) HandleCreateExchange(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	clientUserID, ok1 := parseOptionalID(req.ClientUserID)
	clientContactID, ok2 := parseOptionalID(req.ClientContactID)
	coordinatorID, ok3 := parseOptionalID(req.CoordinatorID)
	if !ok1 || !ok2 || !ok3 {
		http.Error(w, "invalid id in payload", http.StatusBadRequest)
		return
	}
	if coordinatorID == nil && authz.IsCoordinator(r) {
		coordinatorID = &uid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Exchanges.Create(ctx, models.Exchange{
		Name:               req.Name,
		Status:             req.Status,
		ClientUserID:       clientUserID,
		ClientContactID:    clientContactID,
		CoordinatorID:      coordinatorID,
		SaleDate:           req.SaleDate,
		IdentificationDate: req.IdentificationDate,
		CompletionDate:     req.CompletionDate,
	})
	if err != nil {
		h.Log.Error("exchange create failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("exchange created",
		zap.String("exchange_id", created.ID.Hex()),
		zap.String("created_by", uid.Hex()))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}
