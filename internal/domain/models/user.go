// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role names for every party that can touch an exchange.
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleClient      = "client"
	RoleThirdParty  = "third_party"
	RoleAgency      = "agency"
)

// ValidRole reports whether role is one of the five recognized roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleCoordinator, RoleClient, RoleThirdParty, RoleAgency:
		return true
	}
	return false
}

// User is a login identity. Users are created at registration or
// invitation acceptance and are deactivated rather than deleted.
//
// ContactID is a weak reference to the Contact record for the same
// person. It may be nil until the reconciliation sweep links it; every
// read path must keep working while it is nil.
type User struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName  string              `bson:"full_name" json:"full_name"`
	Email     string              `bson:"email" json:"email"`
	EmailCI   string              `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	Role      string              `bson:"role" json:"role"`
	ContactID *primitive.ObjectID `bson:"contact_id,omitempty" json:"contact_id,omitempty"`
	IsActive  bool                `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
