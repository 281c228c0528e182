// internal/domain/models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is the org-owned record of a person, which may exist before
// that person has ever logged in. Created directly by an admin or
// implicitly when an invitation names an email with no existing user.
//
// Many users could in principle point at one contact; in practice the
// relationship is 1:1 and the reconciliation sweep treats it that way.
type Contact struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName   string             `bson:"first_name" json:"first_name"`
	LastName    string             `bson:"last_name" json:"last_name"`
	Email       string             `bson:"email" json:"email"`
	EmailCI     string             `bson:"email_ci" json:"-"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	ContactType string             `bson:"contact_type,omitempty" json:"contact_type,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns "First Last" with whichever parts are present.
func (c Contact) DisplayName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
