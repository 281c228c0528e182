// internal/app/store/assignments/assignmentstore.go
package assignmentstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("agency_assignments")}
}

// ErrDuplicateAssignment is returned when an active edge already exists
// for the same (agency, third party) contact pair.
var ErrDuplicateAssignment = errors.New("agency already has an active assignment to this third party")

// Create inserts a new active agency→third-party edge. The unique
// partial index on the active pair serializes concurrent creates.
func (s *Store) Create(ctx context.Context, a models.AgencyAssignment) (models.AgencyAssignment, error) {
	a.ID = primitive.NewObjectID()
	a.IsActive = true

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AgencyAssignment{}, ErrDuplicateAssignment
		}
		return models.AgencyAssignment{}, err
	}
	return a, nil
}

// GetByID returns a single assignment by its _id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AgencyAssignment, error) {
	var a models.AgencyAssignment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	return a, err
}

// Deactivate turns an edge off. Edges are never deleted, so an admin
// can re-create the pair later without losing the audit trail.
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

// ListActiveByAgency returns the active edges for an agency contact.
func (s *Store) ListActiveByAgency(ctx context.Context, agencyContactID primitive.ObjectID) ([]models.AgencyAssignment, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"agency_contact_id": agencyContactID,
		"is_active":         true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AgencyAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every assignment, active or not. Admin surface only.
func (s *Store) ListAll(ctx context.Context) ([]models.AgencyAssignment, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AgencyAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPerformanceScore updates the rolled-up performance metric on an
// active edge.
func (s *Store) SetPerformanceScore(ctx context.Context, id primitive.ObjectID, score float64) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{"$set": bson.M{"performance_score": score, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
