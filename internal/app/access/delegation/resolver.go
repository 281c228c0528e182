// internal/app/access/delegation/resolver.go

// Package delegation expands an agency's visibility through its active
// third-party assignments. Delegated visibility is transitive but
// capped: the agency gets a reduced view-only profile, never the third
// party's own capabilities, so delegation cannot escalate privilege.
package delegation

import (
	"context"

	assignmentstore "github.com/provident1031/exchangehub/internal/app/store/assignments"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resolver walks agency → third parties → exchanges.
type Resolver struct {
	assignments  *assignmentstore.Store
	participants *participantstore.Store
}

func New(assignments *assignmentstore.Store, participants *participantstore.Store) *Resolver {
	return &Resolver{assignments: assignments, participants: participants}
}

// DelegatedExchanges returns the exchanges reachable through the
// identity's active assignment edges, each mapped to the reduced
// delegated capability profile. Identities that are not agencies, or
// agencies with no contact record yet, delegate nothing.
func (r *Resolver) DelegatedExchanges(ctx context.Context, identity models.Identity) (map[primitive.ObjectID]capability.Set, error) {
	out := make(map[primitive.ObjectID]capability.Set)
	if identity.Role != models.RoleAgency || identity.ContactID == nil {
		return out, nil
	}

	edges, err := r.assignments.ListActiveByAgency(ctx, *identity.ContactID)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return out, nil
	}

	// An agency may reach one third party through one edge only (the
	// active pair is unique), but several third parties can sit on the
	// same exchange with different performance gates. Track the gate
	// per contact so the per-exchange merge below stays most-permissive.
	perfGate := make(map[primitive.ObjectID]bool, len(edges))
	contactIDs := make([]primitive.ObjectID, 0, len(edges))
	for _, e := range edges {
		contactIDs = append(contactIDs, e.ThirdPartyContactID)
		perfGate[e.ThirdPartyContactID] = e.CanViewPerformance
	}

	rows, err := r.participants.ListActiveByContactIDs(ctx, contactIDs)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.ContactID == nil {
			continue
		}
		delegated := capability.Delegated(perfGate[*row.ContactID])
		if existing, ok := out[row.ExchangeID]; ok {
			delegated = existing.Merge(delegated)
		}
		out[row.ExchangeID] = delegated
	}
	return out, nil
}
