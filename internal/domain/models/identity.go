// internal/domain/models/identity.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Identity is the canonical (userID, contactID, role) triple every
// access decision runs on. It is resolved once per request, not stored.
//
// Invariant: at least one of UserID/ContactID is set, and Role is
// always present once resolved. A principal that registered before its
// contact record was linked has only UserID; a contact that was invited
// but never logged in has only ContactID.
type Identity struct {
	UserID    *primitive.ObjectID `json:"user_id,omitempty"`
	ContactID *primitive.ObjectID `json:"contact_id,omitempty"`
	Role      string              `json:"role"`
}

// Valid reports whether the identity carries at least one key and a
// recognized role.
func (id Identity) Valid() bool {
	return (id.UserID != nil || id.ContactID != nil) && ValidRole(id.Role)
}

// UserIdentity builds an identity for a login user.
func UserIdentity(userID primitive.ObjectID, contactID *primitive.ObjectID, role string) Identity {
	return Identity{UserID: &userID, ContactID: contactID, Role: role}
}

// ContactIdentity builds an identity for a contact that has not
// registered yet.
func ContactIdentity(contactID primitive.ObjectID, role string) Identity {
	return Identity{ContactID: &contactID, Role: role}
}
