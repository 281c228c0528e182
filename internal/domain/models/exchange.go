// internal/domain/models/exchange.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exchange statuses.
const (
	ExchangeStatusDraft     = "draft"
	ExchangeStatusActive    = "active"
	ExchangeStatusCompleted = "completed"
	ExchangeStatusCancelled = "cancelled"
)

// Exchange is one 1031 exchange case.
//
// ClientID and CoordinatorID are fast-path grants: the primary client
// and primary coordinator can see the exchange with no participant row
// at all. The visibility engine must check these fields AND the
// participant table; the redundancy is deliberate.
type Exchange struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"-"`
	Status string `bson:"status" json:"status"`

	// Primary client. Either reference may be set depending on whether
	// the client had registered when the exchange was opened.
	ClientUserID    *primitive.ObjectID `bson:"client_user_id,omitempty" json:"client_user_id,omitempty"`
	ClientContactID *primitive.ObjectID `bson:"client_contact_id,omitempty" json:"client_contact_id,omitempty"`

	// Primary coordinator (always a login user).
	CoordinatorID *primitive.ObjectID `bson:"coordinator_id,omitempty" json:"coordinator_id,omitempty"`

	// Key 1031 deadlines, informational on this core's surface.
	SaleDate           *time.Time `bson:"sale_date,omitempty" json:"sale_date,omitempty"`
	IdentificationDate *time.Time `bson:"identification_date,omitempty" json:"identification_date,omitempty"`
	CompletionDate     *time.Time `bson:"completion_date,omitempty" json:"completion_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
