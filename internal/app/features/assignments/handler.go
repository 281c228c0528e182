// internal/app/features/assignments/handler.go
package assignments

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	assignmentstore "github.com/provident1031/exchangehub/internal/app/store/assignments"
	contactstore "github.com/provident1031/exchangehub/internal/app/store/contacts"
	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages agency→third-party delegation edges. Admin only.
type Handler struct {
	Assignments *assignmentstore.Store
	Contacts    *contactstore.Store
	Log         *zap.Logger
}

func NewHandler(assignments *assignmentstore.Store, contacts *contactstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Assignments: assignments,
		Contacts:    contacts,
		Log:         logger,
	}
}

type createAssignmentRequest struct {
	AgencyContactID     string `json:"agency_contact_id"`
	ThirdPartyContactID string `json:"third_party_contact_id"`
	CanViewPerformance  bool   `json:"can_view_performance"`
}

// ServeAssignmentList handles GET /assignments.
func (h *Handler) ServeAssignmentList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Assignments.ListAll(ctx)
	if err != nil {
		h.Log.Error("assignment list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"assignments": list})
}

// HandleCreateAssignment handles POST /assignments. Both contacts must
// exist; the unique partial index rejects a second active edge for the
// same pair with 409.
func (h *Handler) HandleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	agencyID, err := primitive.ObjectIDFromHex(req.AgencyContactID)
	if err != nil {
		http.Error(w, "invalid agency_contact_id", http.StatusBadRequest)
		return
	}
	thirdPartyID, err := primitive.ObjectIDFromHex(req.ThirdPartyContactID)
	if err != nil {
		http.Error(w, "invalid third_party_contact_id", http.StatusBadRequest)
		return
	}
	if agencyID == thirdPartyID {
		http.Error(w, "an agency cannot be assigned to itself", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	for _, id := range []primitive.ObjectID{agencyID, thirdPartyID} {
		if _, err := h.Contacts.GetByID(ctx, id); err != nil {
			if err == mongo.ErrNoDocuments {
				http.Error(w, "contact not found: "+id.Hex(), http.StatusBadRequest)
				return
			}
			h.Log.Error("contact lookup failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	created, err := h.Assignments.Create(ctx, models.AgencyAssignment{
		AgencyContactID:     agencyID,
		ThirdPartyContactID: thirdPartyID,
		CanViewPerformance:  req.CanViewPerformance,
		CreatedByID:         uid,
	})
	if err != nil {
		if err == assignmentstore.ErrDuplicateAssignment {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.Log.Error("assignment create failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("assignment created",
		zap.String("assignment_id", created.ID.Hex()),
		zap.String("agency_contact_id", agencyID.Hex()),
		zap.String("third_party_contact_id", thirdPartyID.Hex()),
		zap.Bool("can_view_performance", created.CanViewPerformance))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// HandleDeactivate handles POST /assignments/{id}/deactivate.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Assignments.Deactivate(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error("assignment deactivate failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("assignment deactivated", zap.String("assignment_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

type performanceRequest struct {
	Score float64 `json:"score"`
}

// HandleSetPerformance handles POST /assignments/{id}/performance.
func (h *Handler) HandleSetPerformance(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req performanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Assignments.SetPerformanceScore(ctx, id, req.Score); err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error("performance update failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
