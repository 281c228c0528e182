// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/provident1031/exchangehub/internal/app/system/auth"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID,
// and a found flag. If no user is present in context or the user ID is
// malformed it returns "visitor", "", NilObjectID, false, so callers
// can trust that ok=true means a valid authenticated user.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Identity builds the canonical access identity for the current
// request: user ID, linked contact ID when the session carries one,
// and role. ok=false when not signed in.
func Identity(r *http.Request) (models.Identity, bool) {
	role, _, userID, ok := UserCtx(r)
	if !ok {
		return models.Identity{}, false
	}
	id := models.UserIdentity(userID, nil, role)
	if cid := UserContactID(r); cid != primitive.NilObjectID {
		id.ContactID = &cid
	}
	return id, true
}

// UserContactID returns the current user's linked contact ID, or
// NilObjectID when the link has not been reconciled yet.
func UserContactID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ContactID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.ContactID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// IsCoordinator reports whether the current request's user is a coordinator.
func IsCoordinator(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleCoordinator
}

// IsClient reports whether the current request's user is a client.
func IsClient(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleClient
}

// IsThirdParty reports whether the current request's user is a third party.
func IsThirdParty(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleThirdParty
}

// IsAgency reports whether the current request's user is an agency.
func IsAgency(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAgency
}

// HasAnyRole reports whether the current request's user has any of the
// given roles. Returns false if no user is present.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// CanManageParticipants reports whether the current user's role may add
// or deactivate participants at all. Per-exchange capability checks
// still run in the visibility engine; this is the coarse gate.
func CanManageParticipants(r *http.Request) bool {
	return HasAnyRole(r, models.RoleAdmin, models.RoleCoordinator)
}
