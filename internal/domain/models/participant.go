// internal/domain/models/participant.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExchangeParticipant is the join between an exchange and an identity:
// one grant of visibility and capabilities over one exchange.
//
// Invariant: UserID and ContactID are never both nil. A row created at
// invite time is usually contact-only; a row created by direct admin
// assignment is usually user-only; reconciliation backfills the missing
// key once a counterpart exists. Rows are soft-deleted via IsActive
// because task/message history keeps referencing them.
//
// Permissions holds whatever shape was stored over the years: a legacy
// token array, a partial capability document, or nothing. It is decoded
// as-is and must always be passed through capability.Normalize before
// use.
type ExchangeParticipant struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ExchangeID  primitive.ObjectID  `bson:"exchange_id" json:"exchange_id"`
	UserID      *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ContactID   *primitive.ObjectID `bson:"contact_id,omitempty" json:"contact_id,omitempty"`
	Role        string              `bson:"role" json:"role"`
	Permissions any                 `bson:"permissions,omitempty" json:"permissions,omitempty"`
	IsActive    bool                `bson:"is_active" json:"is_active"`

	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasIdentity reports whether at least one identity key is set.
func (p ExchangeParticipant) HasIdentity() bool {
	return p.UserID != nil || p.ContactID != nil
}
