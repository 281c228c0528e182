// internal/app/store/invitations/invitationstore.go
package invitationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// DefaultExpiry is how long an invitation stays acceptable.
	DefaultExpiry = 7 * 24 * time.Hour
)

var (
	// ErrNotFound is returned when no invitation matches the token.
	ErrNotFound = errors.New("invitation not found")
	// ErrNotPending is returned when acting on an invitation that is
	// already in a terminal status. Terminal states never transition.
	ErrNotPending = errors.New("invitation is no longer pending")
	// ErrExpired is returned when accepting a pending invitation whose
	// expiry has passed; the row is marked expired as a side effect.
	ErrExpired      = errors.New("invitation has expired")
	errMissingEmail = errors.New("email is required")
	errBadRole      = errors.New(`role must be "admin"|"coordinator"|"client"|"third_party"|"agency"`)
)

// Store manages invitation records.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store with the specified expiry duration. If expiry is
// 0 or negative, DefaultExpiry (7 days) is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("invitations"), expiry: expiry}
}

// Expiry returns the configured invitation lifetime.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Create inserts a pending invitation with a fresh unguessable token.
func (s *Store) Create(ctx context.Context, exchangeID primitive.ObjectID, email, role, message string, invitedBy primitive.ObjectID) (models.Invitation, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.Invitation{}, errMissingEmail
	}
	if !models.ValidRole(role) {
		return models.Invitation{}, errBadRole
	}

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:         primitive.NewObjectID(),
		Token:      uuid.NewString(),
		Email:      email,
		EmailCI:    text.Fold(email),
		Role:       role,
		ExchangeID: exchangeID,
		InvitedBy:  invitedBy,
		Message:    message,
		Status:     models.InvitationPending,
		ExpiresAt:  now.Add(s.expiry),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// GetByToken loads an invitation by its token.
func (s *Store) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// Accept transitions a pending, unexpired invitation to accepted and
// returns it. The transition is a conditional single-row update, so two
// concurrent accepts of the same token serialize at the store: the
// second caller sees the terminal state and gets ErrNotPending.
func (s *Store) Accept(ctx context.Context, token string) (*models.Invitation, error) {
	now := time.Now().UTC()

	res := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"token":      token,
			"status":     models.InvitationPending,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{
			"status":      models.InvitationAccepted,
			"accepted_at": now,
			"updated_at":  now,
		}},
	)
	var inv models.Invitation
	err := res.Decode(&inv)
	if err == nil {
		inv.Status = models.InvitationAccepted
		inv.AcceptedAt = &now
		return &inv, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// The conditional update missed: work out why.
	existing, gerr := s.GetByToken(ctx, token)
	if gerr != nil {
		return nil, gerr
	}
	if existing.Status == models.InvitationPending {
		// Pending but past expiry: mark it expired lazily. Losing the
		// race to the sweep is fine, the outcome is the same.
		_, _ = s.c.UpdateOne(ctx,
			bson.M{"token": token, "status": models.InvitationPending},
			bson.M{"$set": bson.M{"status": models.InvitationExpired, "updated_at": now}},
		)
		return nil, ErrExpired
	}
	return nil, ErrNotPending
}

// Cancel transitions a pending invitation to cancelled.
func (s *Store) Cancel(ctx context.Context, token string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"token": token, "status": models.InvitationPending},
		bson.M{"$set": bson.M{
			"status":     models.InvitationCancelled,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, gerr := s.GetByToken(ctx, token); gerr != nil {
			return gerr
		}
		return ErrNotPending
	}
	return nil
}

// ListByExchange returns all invitations for an exchange, newest first.
func (s *Store) ListByExchange(ctx context.Context, exchangeID primitive.ObjectID) ([]models.Invitation, error) {
	cur, err := s.c.Find(ctx, bson.M{"exchange_id": exchangeID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Invitation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkExpired sweeps pending invitations past their expiry into the
// expired status. Returns the number of rows transitioned. Safe to run
// concurrently with accepts: both sides condition on status=pending.
func (s *Store) MarkExpired(ctx context.Context) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":     models.InvitationPending,
			"expires_at": bson.M{"$lte": time.Now().UTC()},
		},
		bson.M{"$set": bson.M{
			"status":     models.InvitationExpired,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
