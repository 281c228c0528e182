// internal/app/access/identity/resolver.go

// Package identity resolves an authenticated principal into the
// canonical (userID, contactID, role) triple every access decision
// runs on.
package identity

import (
	"context"

	contactstore "github.com/provident1031/exchangehub/internal/app/store/contacts"
	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Principal is the minimal authenticated input: who logged in.
type Principal struct {
	UserID primitive.ObjectID
	Role   string
}

// Resolved is the canonical identity plus a non-binding contact hint.
//
// ContactHint is set when the user has no contact link but a contact
// with the same email exists. It is a lead for the reconciliation
// sweep, never an access grant: binding rewrites the user row and is
// audited, which a read-path resolver must not do on the side.
type Resolved struct {
	Identity    models.Identity
	ContactHint *primitive.ObjectID
}

// Resolver normalizes principals into identities.
type Resolver struct {
	users    *userstore.Store
	contacts *contactstore.Store
	log      *zap.Logger
}

func New(users *userstore.Store, contacts *contactstore.Store, logger *zap.Logger) *Resolver {
	return &Resolver{users: users, contacts: contacts, log: logger}
}

// Resolve looks up the principal's user record and builds the identity.
// A user with no contact link still resolves: the role-based fallback
// paths (admin, primary client/coordinator fields) work on user ID
// alone, so a nil contact is never a hard failure.
func (r *Resolver) Resolve(ctx context.Context, p Principal) (Resolved, error) {
	u, err := r.users.GetByID(ctx, p.UserID)
	if err != nil {
		return Resolved{}, err
	}

	role := u.Role
	if role == "" {
		role = p.Role
	}
	out := Resolved{Identity: models.UserIdentity(u.ID, u.ContactID, role)}
	if u.ContactID != nil {
		return out, nil
	}

	// Best-effort hint by exact email match. Lookup failures degrade to
	// "no hint"; the identity is already usable.
	c, err := r.contacts.GetByEmail(ctx, u.Email)
	switch {
	case err == nil:
		out.ContactHint = &c.ID
		r.log.Debug("contact hint for unlinked user",
			zap.String("user_id", u.ID.Hex()),
			zap.String("contact_id", c.ID.Hex()))
	case err != mongo.ErrNoDocuments:
		r.log.Warn("contact hint lookup failed",
			zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	return out, nil
}
