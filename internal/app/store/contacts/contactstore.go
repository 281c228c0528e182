// internal/app/store/contacts/contactstore.go
package contactstore

import (
	"context"
	"errors"
	"strings"
	"time"

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
	return &Store{c: db.Collection("contacts")}
}

var errMissingEmail = errors.New("email is required")

// GetByID loads a contact by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	var c models.Contact
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail looks up a contact by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Contact, error) {
	var c models.Contact
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new contact.
func (s *Store) Create(ctx context.Context, c models.Contact) (models.Contact, error) {
	c.ID = primitive.NewObjectID()
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.EmailCI = text.Fold(c.Email)
	if c.Email == "" {
		return models.Contact{}, errMissingEmail
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

// EnsureByEmail returns the contact with the given email, creating a
// bare record when none exists. Invitation acceptance uses this so a
// participant row always has a contact to hang on to.
func (s *Store) EnsureByEmail(ctx context.Context, email, firstName, lastName string) (*models.Contact, error) {
	c, err := s.GetByEmail(ctx, email)
	if err == nil {
		return c, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	created, err := s.Create(ctx, models.Contact{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
