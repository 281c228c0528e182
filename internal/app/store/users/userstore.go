// internal/app/store/users/userstore.go
package userstore

// Terminology: Identity keys
//   - UserID / user_id: the MongoDB ObjectID of a login user record
//   - ContactID / contact_id: the ObjectID of the org-owned contact
//     record for the same person; nil until reconciliation links it

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when creating a user with an email
	// that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"coordinator"|"client"|"third_party"|"agency"`)
	errMissingEmail   = errors.New("email is required")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new active user after normalizing and validating
// fields. Uniqueness of email_ci is enforced by index; duplicates map
// to ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = strings.TrimSpace(u.Email)
	u.EmailCI = text.Fold(u.Email)
	if u.Email == "" {
		return models.User{}, errMissingEmail
	}
	if !models.ValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	u.IsActive = true

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// SetContactID links a user to its contact record. The update is a
// single-row compare-and-set on contact_id being unset, so a concurrent
// reconciliation sweep cannot overwrite an existing link. Returns true
// when this call performed the link.
func (s *Store) SetContactID(ctx context.Context, userID, contactID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "contact_id": nil},
		bson.M{"$set": bson.M{"contact_id": contactID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ListUnlinked returns active users with no contact link yet. The nil
// filter matches both a missing contact_id and an explicit null, which
// rows written by the old system carry.
func (s *Store) ListUnlinked(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"is_active":  true,
		"contact_id": nil,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByContactID returns the active user linked to the given contact.
// Returns mongo.ErrNoDocuments when no user has claimed the contact yet.
func (s *Store) GetByContactID(ctx context.Context, contactID primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"contact_id": contactID, "is_active": true}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetRole changes a user's role. Used by the startup admin bootstrap
// and operator tooling; the new role takes effect on the user's next
// request because the session middleware refetches the user row.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if !models.ValidRole(role) {
		return errBadRole
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"role": role, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Deactivate marks a user inactive. Users are never hard-deleted.
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
