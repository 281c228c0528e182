// internal/app/store/participants/participantstore.go
package participantstore

// Terminology: Identity keys
//   - UserID / user_id: the MongoDB ObjectID of a login user record
//   - ContactID / contact_id: the ObjectID of the org-owned contact
//     record; invitation-created rows start contact-only

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("exchange_participants")}
}

var (
	// ErrDuplicateParticipant is returned when an active row already
	// exists for the same (exchange, user) or (exchange, contact) pair.
	ErrDuplicateParticipant = errors.New("identity is already an active participant on this exchange")
	// ErrMissingIdentity is returned for a row with neither user_id nor
	// contact_id. Such a row is a data-integrity violation and is
	// rejected at write time, never repaired silently.
	ErrMissingIdentity = errors.New("participant requires a user_id or contact_id")
	errBadRole         = errors.New(`role must be "admin"|"coordinator"|"client"|"third_party"|"agency"`)
)

// Add inserts a participant row granting identity access to the
// exchange. Permissions of any stored shape are normalized before the
// write. Duplicate detection relies on the partial unique indexes, not
// a pre-check, so two concurrent invitation acceptances cannot both
// slip past a liveness check; the loser gets ErrDuplicateParticipant.
func (s *Store) Add(ctx context.Context, exchangeID primitive.ObjectID, identity models.Identity, role string, permissions any) (models.ExchangeParticipant, error) {
	if identity.UserID == nil && identity.ContactID == nil {
		return models.ExchangeParticipant{}, ErrMissingIdentity
	}
	if !models.ValidRole(role) {
		return models.ExchangeParticipant{}, errBadRole
	}

	now := time.Now().UTC()
	p := models.ExchangeParticipant{
		ID:          primitive.NewObjectID(),
		ExchangeID:  exchangeID,
		UserID:      identity.UserID,
		ContactID:   identity.ContactID,
		Role:        role,
		Permissions: capability.Normalize(role, permissions),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ExchangeParticipant{}, ErrDuplicateParticipant
		}
		return models.ExchangeParticipant{}, err
	}
	return p, nil
}

// GetByID loads a participant row by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ExchangeParticipant, error) {
	var p models.ExchangeParticipant
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Deactivate soft-deletes a participant row. History (tasks, messages)
// keeps referencing the row, so it is never removed.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByExchange returns the active rows for an exchange, each with
// permissions normalized for the caller.
func (s *Store) ListByExchange(ctx context.Context, exchangeID primitive.ObjectID) ([]models.ExchangeParticipant, error) {
	return s.list(ctx, bson.M{"exchange_id": exchangeID, "is_active": true})
}

// ListByIdentity returns every active row matching the identity's user
// ID OR its contact ID. Checking both keys is the load-bearing rule of
// the whole engine: a row created before the person registered only has
// contact_id, and a row created by direct assignment only has user_id.
func (s *Store) ListByIdentity(ctx context.Context, identity models.Identity) ([]models.ExchangeParticipant, error) {
	var or []bson.M
	if identity.UserID != nil {
		or = append(or, bson.M{"user_id": *identity.UserID})
	}
	if identity.ContactID != nil {
		or = append(or, bson.M{"contact_id": *identity.ContactID})
	}
	if len(or) == 0 {
		return nil, ErrMissingIdentity
	}
	return s.list(ctx, bson.M{"is_active": true, "$or": or})
}

// ListActiveByContactIDs returns active rows whose contact_id is in the
// given set. The delegation resolver uses this to walk from an agency's
// third parties to their exchanges.
func (s *Store) ListActiveByContactIDs(ctx context.Context, contactIDs []primitive.ObjectID) ([]models.ExchangeParticipant, error) {
	if len(contactIDs) == 0 {
		return nil, nil
	}
	return s.list(ctx, bson.M{
		"is_active":  true,
		"contact_id": bson.M{"$in": contactIDs},
	})
}

// ContactOnly returns active rows that still have no user_id. These are
// the rows the reconciliation sweep tries to bind. A nil filter matches
// both a missing field and an explicit null; rows written by the old
// system store nulls, not absent fields.
func (s *Store) ContactOnly(ctx context.Context) ([]models.ExchangeParticipant, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"is_active":  true,
		"user_id":    nil,
		"contact_id": bson.M{"$ne": nil},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ExchangeParticipant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ContactOnlyForContact returns active unbound rows for one contact.
// Used after a user↔contact link is made to backfill just that contact.
func (s *Store) ContactOnlyForContact(ctx context.Context, contactID primitive.ObjectID) ([]models.ExchangeParticipant, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"is_active":  true,
		"user_id":    nil,
		"contact_id": contactID,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ExchangeParticipant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BindUser backfills user_id on a contact-only row. The filter requires
// user_id to still be unset, so the update is a single-row
// compare-and-set: concurrent sweeps cannot double-bind, and a crash
// mid-sweep leaves each row either bound or untouched. Returns true
// when this call performed the bind.
func (s *Store) BindUser(ctx context.Context, participantID, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": participantID, "user_id": nil},
		bson.M{"$set": bson.M{"user_id": userID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.ExchangeParticipant, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ExchangeParticipant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Permissions = capability.Normalize(out[i].Role, out[i].Permissions)
	}
	return out, nil
}
