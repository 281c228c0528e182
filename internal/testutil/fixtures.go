package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user with the given role and email.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  name,
		Email:     email,
		EmailCI:   text.Fold(email),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateLinkedUser inserts a user already linked to a contact.
func (f *Fixtures) CreateLinkedUser(ctx context.Context, name, email, role string, contactID primitive.ObjectID) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, name, email, role)
	u.ContactID = &contactID
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID,
		primitive.M{"$set": primitive.M{"contact_id": contactID}}); err != nil {
		f.t.Fatalf("failed to link test user to contact: %v", err)
	}
	return u
}

// CreateContact inserts a contact with the given name and email.
func (f *Fixtures) CreateContact(ctx context.Context, first, last, email string) models.Contact {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Contact{
		ID:        primitive.NewObjectID(),
		FirstName: first,
		LastName:  last,
		Email:     email,
		EmailCI:   text.Fold(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("contacts").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test contact: %v", err)
	}
	return c
}

// CreateExchange inserts an active exchange with no primary parties.
func (f *Fixtures) CreateExchange(ctx context.Context, name string) models.Exchange {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Exchange{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    models.ExchangeStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("exchanges").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test exchange: %v", err)
	}
	return e
}

// SetPrimaryClient sets the exchange's primary client user.
func (f *Fixtures) SetPrimaryClient(ctx context.Context, exchangeID, userID primitive.ObjectID) {
	f.t.Helper()
	if _, err := f.db.Collection("exchanges").UpdateByID(ctx, exchangeID,
		primitive.M{"$set": primitive.M{"client_user_id": userID}}); err != nil {
		f.t.Fatalf("failed to set primary client: %v", err)
	}
}

// SetPrimaryClientContact sets the exchange's primary client contact.
func (f *Fixtures) SetPrimaryClientContact(ctx context.Context, exchangeID, contactID primitive.ObjectID) {
	f.t.Helper()
	if _, err := f.db.Collection("exchanges").UpdateByID(ctx, exchangeID,
		primitive.M{"$set": primitive.M{"client_contact_id": contactID}}); err != nil {
		f.t.Fatalf("failed to set primary client contact: %v", err)
	}
}

// SetPrimaryCoordinator sets the exchange's primary coordinator user.
func (f *Fixtures) SetPrimaryCoordinator(ctx context.Context, exchangeID, userID primitive.ObjectID) {
	f.t.Helper()
	if _, err := f.db.Collection("exchanges").UpdateByID(ctx, exchangeID,
		primitive.M{"$set": primitive.M{"coordinator_id": userID}}); err != nil {
		f.t.Fatalf("failed to set primary coordinator: %v", err)
	}
}

// CreateParticipantForUser inserts an active user-keyed participant row.
func (f *Fixtures) CreateParticipantForUser(ctx context.Context, exchangeID, userID primitive.ObjectID, role string) models.ExchangeParticipant {
	f.t.Helper()
	return f.insertParticipant(ctx, exchangeID, &userID, nil, role, nil)
}

// CreateParticipantForContact inserts an active contact-only participant
// row, the shape created at invite time before registration.
func (f *Fixtures) CreateParticipantForContact(ctx context.Context, exchangeID, contactID primitive.ObjectID, role string) models.ExchangeParticipant {
	f.t.Helper()
	return f.insertParticipant(ctx, exchangeID, nil, &contactID, role, nil)
}

// CreateParticipantWithPermissions inserts a user-keyed participant row
// with raw stored permissions (legacy array, partial object, ...).
func (f *Fixtures) CreateParticipantWithPermissions(ctx context.Context, exchangeID, userID primitive.ObjectID, role string, perms any) models.ExchangeParticipant {
	f.t.Helper()
	return f.insertParticipant(ctx, exchangeID, &userID, nil, role, perms)
}

func (f *Fixtures) insertParticipant(ctx context.Context, exchangeID primitive.ObjectID, userID, contactID *primitive.ObjectID, role string, perms any) models.ExchangeParticipant {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.ExchangeParticipant{
		ID:          primitive.NewObjectID(),
		ExchangeID:  exchangeID,
		UserID:      userID,
		ContactID:   contactID,
		Role:        role,
		Permissions: perms,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("exchange_participants").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test participant: %v", err)
	}
	return p
}

// CreateAssignment inserts an active agency→third-party edge.
func (f *Fixtures) CreateAssignment(ctx context.Context, agencyContactID, thirdPartyContactID primitive.ObjectID, canViewPerformance bool) models.AgencyAssignment {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.AgencyAssignment{
		ID:                  primitive.NewObjectID(),
		AgencyContactID:     agencyContactID,
		ThirdPartyContactID: thirdPartyContactID,
		IsActive:            true,
		CanViewPerformance:  canViewPerformance,
		CreatedAt:           now,
		CreatedByID:         primitive.NewObjectID(),
		UpdatedAt:           now,
	}
	if _, err := f.db.Collection("agency_assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}

// CreateInvitation inserts a pending invitation expiring in 7 days.
func (f *Fixtures) CreateInvitation(ctx context.Context, exchangeID primitive.ObjectID, email, role string, invitedBy primitive.ObjectID) models.Invitation {
	f.t.Helper()

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:         primitive.NewObjectID(),
		Token:      uuid.NewString(),
		Email:      email,
		EmailCI:    text.Fold(email),
		Role:       role,
		ExchangeID: exchangeID,
		InvitedBy:  invitedBy,
		Status:     models.InvitationPending,
		ExpiresAt:  now.Add(7 * 24 * time.Hour),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("invitations").InsertOne(ctx, inv); err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}
	return inv
}
