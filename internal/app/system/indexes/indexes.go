// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The partial unique indexes on exchange_participants and
agency_assignments are not an optimization: concurrent invitation
acceptance and assignment creation rely on them to serialize duplicate
inserts. Removing one silently re-opens those races.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureContacts(ctx, db); err != nil {
		problems = append(problems, "contacts: "+err.Error())
	}
	if err := ensureExchanges(ctx, db); err != nil {
		problems = append(problems, "exchanges: "+err.Error())
	}
	if err := ensureParticipants(ctx, db); err != nil {
		problems = append(problems, "exchange_participants: "+err.Error())
	}
	if err := ensureAssignments(ctx, db); err != nil {
		problems = append(problems, "agency_assignments: "+err.Error())
	}
	if err := ensureInvitations(ctx, db); err != nil {
		problems = append(problems, "invitations: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with
// the same keys already exists under a different name or options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// ensureIndexSet brings one collection's indexes in line with the
// desired models. Two indexes match when their key signatures agree;
// partial indexes intentionally share key signatures with nothing else
// here, so signature comparison stays sufficient. A mismatch in the
// unique option drops and recreates; an outright name collision with
// different options falls through to drop-by-name and recreate.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok && ex.Name == desiredName && sameBoolPtr(desiredUnique, ex.Unique) {
			zap.L().Info("reusing existing index",
				zap.String("collection", coll.Name()),
				zap.String("name", ex.Name),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}
		if ex, ok := existing[desiredSig]; ok {
			// Same keys, wrong name or options. Drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				// A stale index holds the desired name with different
				// options. Drop by name and retry once.
				if _, dropErr := coll.Indexes().DropOne(ctx, desiredName); dropErr != nil {
					errs = append(errs, fmt.Sprintf("%s(%s): conflict drop failed: %v", coll.Name(), desiredName, dropErr))
					continue
				}
				if _, err2 := coll.Indexes().CreateOne(ctx, m); err2 != nil {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err2))
					continue
				}
			} else if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
				continue
			} else {
				zap.L().Warn("index ensure failed",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.String("keys", desiredSig),
					zap.String("took", time.Since(start).String()),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				continue
			}
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all users (case/diacritics folded)
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		// Reverse lookup: which user claimed a contact
		{
			Keys:    bson.D{{Key: "contact_id", Value: 1}},
			Options: options.Index().SetName("idx_users_contact"),
		},
		// Reconciliation sweep: active users with no contact link
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "contact_id", Value: 1}},
			Options: options.Index().SetName("idx_users_active_contact"),
		},
	})
}

func ensureContacts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("contacts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Folded email lookup is the linkage key; must be unique so
		// EnsureByEmail cannot fork a person into two contacts.
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_contacts_emailci"),
		},
	})
}

func ensureExchanges(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("exchanges")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Primary-party fast paths used by the visibility engine
		{
			Keys:    bson.D{{Key: "client_user_id", Value: 1}},
			Options: options.Index().SetName("idx_exchanges_client_user"),
		},
		{
			Keys:    bson.D{{Key: "client_contact_id", Value: 1}},
			Options: options.Index().SetName("idx_exchanges_client_contact"),
		},
		{
			Keys:    bson.D{{Key: "coordinator_id", Value: 1}},
			Options: options.Index().SetName("idx_exchanges_coordinator"),
		},
		// List pages: filter by status, prefix on name_ci, stable tiebreak
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_exchanges_status_nameci__id"),
		},
	})
}

func ensureParticipants(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("exchange_participants")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One active row per (exchange, user). Partial: inactive rows and
		// contact-only rows are exempt, so deactivate-then-reinvite works
		// and a contact-only row can coexist until reconciliation binds it.
		{
			Keys: bson.D{{Key: "exchange_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_participants_exchange_user_active").
				SetPartialFilterExpression(bson.D{
					{Key: "is_active", Value: true},
					{Key: "user_id", Value: bson.D{{Key: "$exists", Value: true}}},
				}),
		},
		// One active row per (exchange, contact), same shape.
		{
			Keys: bson.D{{Key: "exchange_id", Value: 1}, {Key: "contact_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_participants_exchange_contact_active").
				SetPartialFilterExpression(bson.D{
					{Key: "is_active", Value: true},
					{Key: "contact_id", Value: bson.D{{Key: "$exists", Value: true}}},
				}),
		},
		// Identity lookups (both halves of the $or)
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_participants_user_active"),
		},
		{
			Keys:    bson.D{{Key: "contact_id", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_participants_contact_active"),
		},
		// Roster per exchange
		{
			Keys:    bson.D{{Key: "exchange_id", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_participants_exchange_active"),
		},
	})
}

func ensureAssignments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("agency_assignments")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One active edge per (agency, third party) pair. Partial on
		// is_active so a deactivated edge can be re-created.
		{
			Keys: bson.D{
				{Key: "agency_contact_id", Value: 1},
				{Key: "third_party_contact_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_assignments_pair_active").
				SetPartialFilterExpression(bson.D{
					{Key: "is_active", Value: true},
				}),
		},
		// Delegation walk: active edges for an agency
		{
			Keys:    bson.D{{Key: "agency_contact_id", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_assignments_agency_active"),
		},
	})
}

func ensureInvitations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("invitations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Tokens are the public handle; uniqueness is non-negotiable
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_invitations_token"),
		},
		// Per-exchange invitation lists
		{
			Keys:    bson.D{{Key: "exchange_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_invitations_exchange_created"),
		},
		// Expiry sweep: pending rows ordered by expiry
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_invitations_status_expires"),
		},
	})
}
