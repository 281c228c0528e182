// internal/app/features/invitations/accept.go
package invitations

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	invitationstore "github.com/provident1031/exchangehub/internal/app/store/invitations"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	"github.com/provident1031/exchangehub/internal/app/system/auth"
	"github.com/provident1031/exchangehub/internal/app/system/authz"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.uber.org/zap"
)

// HandleAccept handles POST /invitations/{token}/accept. The whole
// promotion runs here: the conditional status transition, the contact
// ensure, the user↔contact link when emails agree, the participant row,
// and a targeted backfill of the contact's older rows.
//
// Each step is individually idempotent, so a crash partway through
// leaves a state the next accept attempt or reconcile sweep completes.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sessionUser, _ := auth.CurrentUser(r)

	token := chi.URLParam(r, "token")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	inv, err := h.Invitations.Accept(ctx, token)
	switch {
	case err == invitationstore.ErrNotFound:
		http.Error(w, "not found", http.StatusNotFound)
		return
	case err == invitationstore.ErrExpired:
		http.Error(w, err.Error(), http.StatusGone)
		return
	case err == invitationstore.ErrNotPending:
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.Log.Error("invitation accept failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	first, last := splitName(sessionUser.Name)
	contact, err := h.Contacts.EnsureByEmail(ctx, inv.Email, first, last)
	if err != nil {
		h.Log.Error("contact ensure failed",
			zap.String("invitation_id", inv.ID.Hex()), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// The invitation's contact belongs to the invited email. Tie the
	// accepting user to it only when the emails agree: accepting a
	// forwarded invitation must not claim someone else's contact record,
	// and a participant row must never pair a user with a contact that
	// is a different person. A mismatched accept gets a user-only row;
	// if the invited person registers later, reconciliation binds the
	// contact to them, not to whoever held the link.
	sameEmail := text.Fold(sessionUser.Email) == text.Fold(inv.Email)
	if sameEmail {
		if linked, err := h.Users.SetContactID(ctx, uid, contact.ID); err != nil {
			h.Log.Warn("user-contact link failed",
				zap.String("user_id", uid.Hex()), zap.Error(err))
		} else if linked {
			h.Log.Info("linked user to contact on acceptance",
				zap.String("user_id", uid.Hex()),
				zap.String("contact_id", contact.ID.Hex()))
		}
	}

	target := models.Identity{UserID: &uid, Role: inv.Role}
	if sameEmail {
		target.ContactID = &contact.ID
	}
	participant, err := h.Participants.Add(ctx, inv.ExchangeID, target, inv.Role, nil)
	alreadyParticipant := false
	switch {
	case err == participantstore.ErrDuplicateParticipant:
		// Already on the exchange; acceptance still stands.
		alreadyParticipant = true
	case err != nil:
		h.Log.Error("participant create on acceptance failed",
			zap.String("invitation_id", inv.ID.Hex()), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Backfilling older contact-only rows onto this user is only valid
	// when the contact is this user's.
	bound := 0
	if sameEmail {
		bound, err = h.Reconciler.BackfillContact(ctx, contact.ID, uid)
		if err != nil {
			// The sweep will catch these later; acceptance succeeded.
			h.Log.Warn("acceptance backfill failed",
				zap.String("contact_id", contact.ID.Hex()), zap.Error(err))
		}
	}

	h.Log.Info("invitation accepted",
		zap.String("invitation_id", inv.ID.Hex()),
		zap.String("exchange_id", inv.ExchangeID.Hex()),
		zap.String("user_id", uid.Hex()),
		zap.Int("rows_backfilled", bound))

	resp := map[string]any{
		"invitation":          inv,
		"already_participant": alreadyParticipant,
		"rows_backfilled":     bound,
	}
	if !alreadyParticipant {
		resp["participant_id"] = participant.ID
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
