// internal/app/access/reconcile/reconciler.go

// Package reconcile repairs the user↔contact linkage drift that the
// dual-identity model accumulates: users who registered after being
// invited have no contact link, and their invitation-created
// participant rows have no user_id. The sweep links what it can and
// reports what it cannot; it never deletes or rewrites existing links.
package reconcile

import (
	"context"

	contactstore "github.com/provident1031/exchangehub/internal/app/store/contacts"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Orphan is a row the sweep examined but could not repair. Orphans are
// reported, never mutated: a row with a dangling contact reference or a
// contested email match is an operator problem, not something a
// background job should guess at.
type Orphan struct {
	ID     primitive.ObjectID `json:"id"`
	Kind   string             `json:"kind"` // "user" or "participant"
	Reason string             `json:"reason"`
}

// Report summarizes one sweep. Counts cover work this run performed;
// rows already linked by a concurrent sweep are not counted twice.
type Report struct {
	UsersLinked       int      `json:"users_linked"`
	ParticipantsBound int      `json:"participants_bound"`
	Orphans           []Orphan `json:"orphans,omitempty"`
	Errors            int      `json:"errors"`
}

// Reconciler runs the two-phase linkage sweep.
type Reconciler struct {
	users        *userstore.Store
	contacts     *contactstore.Store
	participants *participantstore.Store
	log          *zap.Logger
}

func New(users *userstore.Store, contacts *contactstore.Store, participants *participantstore.Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		users:        users,
		contacts:     contacts,
		participants: participants,
		log:          logger,
	}
}

// Run executes one full sweep: phase one links unlinked users to
// contacts by folded email, phase two backfills user_id onto
// contact-only participant rows whose contact has a linked user.
//
// Every repair is a single-row compare-and-set, so the sweep is
// idempotent and safe to run concurrently with itself or with
// invitation acceptance. A row-level failure is logged and counted but
// never aborts the sweep; Run returns a non-nil error only when a
// phase cannot enumerate its candidates at all.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var rep Report

	if err := r.linkUsers(ctx, &rep); err != nil {
		return rep, err
	}
	if err := r.bindParticipants(ctx, &rep); err != nil {
		return rep, err
	}

	r.log.Info("reconciliation sweep complete",
		zap.Int("users_linked", rep.UsersLinked),
		zap.Int("participants_bound", rep.ParticipantsBound),
		zap.Int("orphans", len(rep.Orphans)),
		zap.Int("errors", rep.Errors))
	return rep, nil
}

// linkUsers matches unlinked users to contacts by email. A contact
// already claimed by a different user is a divergence the sweep
// surfaces as an orphan rather than re-pointing either side.
func (r *Reconciler) linkUsers(ctx context.Context, rep *Report) error {
	unlinked, err := r.users.ListUnlinked(ctx)
	if err != nil {
		return err
	}

	for _, u := range unlinked {
		c, err := r.contacts.GetByEmail(ctx, u.Email)
		if err == mongo.ErrNoDocuments {
			continue // nothing to link yet; a future contact may match
		}
		if err != nil {
			rep.Errors++
			r.log.Warn("contact lookup failed during sweep",
				zap.String("user_id", u.ID.Hex()), zap.Error(err))
			continue
		}

		claimant, err := r.users.GetByContactID(ctx, c.ID)
		switch {
		case err == nil && claimant.ID != u.ID:
			rep.Orphans = append(rep.Orphans, Orphan{
				ID:     u.ID,
				Kind:   "user",
				Reason: "matching contact is already linked to another user",
			})
			continue
		case err != nil && err != mongo.ErrNoDocuments:
			rep.Errors++
			r.log.Warn("claimant lookup failed during sweep",
				zap.String("user_id", u.ID.Hex()), zap.Error(err))
			continue
		}

		linked, err := r.users.SetContactID(ctx, u.ID, c.ID)
		if err != nil {
			rep.Errors++
			r.log.Warn("contact link failed during sweep",
				zap.String("user_id", u.ID.Hex()), zap.Error(err))
			continue
		}
		if linked {
			rep.UsersLinked++
			r.log.Info("linked user to contact",
				zap.String("user_id", u.ID.Hex()),
				zap.String("contact_id", c.ID.Hex()))
		}
	}
	return nil
}

// bindParticipants backfills user_id on contact-only rows whose contact
// now has a registered user.
func (r *Reconciler) bindParticipants(ctx context.Context, rep *Report) error {
	rows, err := r.participants.ContactOnly(ctx)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if row.ContactID == nil {
			// Should be unreachable given the write-time guard.
			rep.Orphans = append(rep.Orphans, Orphan{
				ID:     row.ID,
				Kind:   "participant",
				Reason: "row has neither user_id nor contact_id",
			})
			continue
		}

		u, err := r.users.GetByContactID(ctx, *row.ContactID)
		if err == mongo.ErrNoDocuments {
			continue // contact's person has not registered yet
		}
		if err != nil {
			rep.Errors++
			r.log.Warn("user lookup failed during sweep",
				zap.String("participant_id", row.ID.Hex()), zap.Error(err))
			continue
		}

		bound, err := r.participants.BindUser(ctx, row.ID, u.ID)
		if err != nil {
			rep.Errors++
			r.log.Warn("participant bind failed during sweep",
				zap.String("participant_id", row.ID.Hex()), zap.Error(err))
			continue
		}
		if bound {
			rep.ParticipantsBound++
			r.log.Info("bound participant to user",
				zap.String("participant_id", row.ID.Hex()),
				zap.String("user_id", u.ID.Hex()))
		}
	}
	return nil
}

// BackfillContact runs the participant-binding phase for a single
// contact. Invitation acceptance calls this right after linking, so the
// accepting user sees their historical rows immediately instead of
// waiting for the next scheduled sweep.
func (r *Reconciler) BackfillContact(ctx context.Context, contactID, userID primitive.ObjectID) (int, error) {
	rows, err := r.participants.ContactOnlyForContact(ctx, contactID)
	if err != nil {
		return 0, err
	}

	bound := 0
	for _, row := range rows {
		ok, err := r.participants.BindUser(ctx, row.ID, userID)
		if err != nil {
			r.log.Warn("participant bind failed during backfill",
				zap.String("participant_id", row.ID.Hex()), zap.Error(err))
			continue
		}
		if ok {
			bound++
		}
	}
	return bound, nil
}
