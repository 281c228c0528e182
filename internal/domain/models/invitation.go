// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation statuses. Accepted, expired, and cancelled are terminal;
// a terminal invitation never transitions again.
const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationExpired   = "expired"
	InvitationCancelled = "cancelled"
)

// Invitation asks an email address to join one exchange in a given
// role. Acceptance promotes it into an ExchangeParticipant row and
// triggers a reconciliation pass.
type Invitation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token      string             `bson:"token" json:"-"` // unguessable, unique
	Email      string             `bson:"email" json:"email"`
	EmailCI    string             `bson:"email_ci" json:"-"`
	Role       string             `bson:"role" json:"role"`
	ExchangeID primitive.ObjectID `bson:"exchange_id" json:"exchange_id"`
	InvitedBy  primitive.ObjectID `bson:"invited_by" json:"invited_by"`
	Message    string             `bson:"message,omitempty" json:"message,omitempty"`
	Status     string             `bson:"status" json:"status"`
	ExpiresAt  time.Time          `bson:"expires_at" json:"expires_at"`
	AcceptedAt *time.Time         `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Terminal reports whether the invitation is in a terminal status.
func (i Invitation) Terminal() bool {
	return i.Status == InvitationAccepted || i.Status == InvitationExpired || i.Status == InvitationCancelled
}
