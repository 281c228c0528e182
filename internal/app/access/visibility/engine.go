// internal/app/access/visibility/engine.go

// Package visibility is the read path every other feature scopes its
// queries through: given a canonical identity, which exchanges can it
// see, and with what capabilities.
//
// Visibility reaches an exchange over up to three paths: the primary
// client/coordinator fields on the exchange row, the participant table,
// and (for agencies) delegation through third parties. Paths merge by
// per-key OR, so a second reason to see an exchange never makes an
// identity less capable.
package visibility

import (
	"context"

	"github.com/provident1031/exchangehub/internal/app/access/delegation"
	exchangestore "github.com/provident1031/exchangehub/internal/app/store/exchanges"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Engine composes the participant store, the exchange fast paths, and
// the delegation resolver.
type Engine struct {
	exchanges    *exchangestore.Store
	participants *participantstore.Store
	delegation   *delegation.Resolver
	log          *zap.Logger
}

func New(exchanges *exchangestore.Store, participants *participantstore.Store, delegation *delegation.Resolver, logger *zap.Logger) *Engine {
	return &Engine{
		exchanges:    exchanges,
		participants: participants,
		delegation:   delegation,
		log:          logger,
	}
}

// VisibleExchanges returns every exchange the identity can see, each
// mapped to its effective capability set. An empty map is a valid
// result, not an error: "no visible exchanges" and "exchange not in
// the map" are indistinguishable to callers on purpose.
func (e *Engine) VisibleExchanges(ctx context.Context, identity models.Identity) (map[primitive.ObjectID]capability.Set, error) {
	out := make(map[primitive.ObjectID]capability.Set)
	if !identity.Valid() {
		return out, nil
	}

	switch identity.Role {
	case models.RoleAdmin:
		// Admins see everything; no participant lookup needed.
		ids, err := e.exchanges.ListIDs(ctx)
		if err != nil {
			return nil, err
		}
		tmpl := capability.Template(models.RoleAdmin)
		for _, id := range ids {
			out[id] = tmpl.Clone()
		}
		return out, nil

	case models.RoleClient:
		if err := e.mergeParticipantRows(ctx, identity, out); err != nil {
			return nil, err
		}
		// Primary-client fast path: grants the full client template
		// even with no participant row.
		ids, err := e.exchanges.ListIDsByPrimaryClient(ctx, identity.UserID, identity.ContactID)
		if err != nil {
			return nil, err
		}
		mergeTemplate(out, ids, capability.Template(models.RoleClient))
		return out, nil

	case models.RoleCoordinator:
		if err := e.mergeParticipantRows(ctx, identity, out); err != nil {
			return nil, err
		}
		if identity.UserID != nil {
			ids, err := e.exchanges.ListIDsByCoordinator(ctx, *identity.UserID)
			if err != nil {
				return nil, err
			}
			mergeTemplate(out, ids, capability.Template(models.RoleCoordinator))
		}
		return out, nil

	case models.RoleThirdParty:
		if err := e.mergeParticipantRows(ctx, identity, out); err != nil {
			return nil, err
		}
		return out, nil

	case models.RoleAgency:
		// Direct invitations first, then delegated exchanges. Where
		// both paths reach the same exchange the per-key OR keeps the
		// result inside the agency template: both inputs already are.
		if err := e.mergeParticipantRows(ctx, identity, out); err != nil {
			return nil, err
		}
		delegated, err := e.delegation.DelegatedExchanges(ctx, identity)
		if err != nil {
			return nil, err
		}
		for id, caps := range delegated {
			if existing, ok := out[id]; ok {
				out[id] = existing.Merge(caps)
			} else {
				out[id] = caps
			}
		}
		return out, nil
	}

	// Unrecognized role: nothing visible.
	return out, nil
}

// HasCapability reports whether the identity holds one capability on
// one exchange. Callers must treat false identically to "exchange not
// found" so existence never leaks.
func (e *Engine) HasCapability(ctx context.Context, identity models.Identity, exchangeID primitive.ObjectID, key capability.Key) (bool, error) {
	visible, err := e.VisibleExchanges(ctx, identity)
	if err != nil {
		return false, err
	}
	caps, ok := visible[exchangeID]
	if !ok {
		return false, nil
	}
	return caps.Has(key), nil
}

// CanSee reports whether the exchange is visible at all.
func (e *Engine) CanSee(ctx context.Context, identity models.Identity, exchangeID primitive.ObjectID) (bool, error) {
	visible, err := e.VisibleExchanges(ctx, identity)
	if err != nil {
		return false, err
	}
	_, ok := visible[exchangeID]
	return ok, nil
}

// mergeParticipantRows folds the identity's active participant rows
// into the result map. Row permissions were normalized by the store;
// the defensive re-normalize covers rows that arrived another way.
func (e *Engine) mergeParticipantRows(ctx context.Context, identity models.Identity, out map[primitive.ObjectID]capability.Set) error {
	rows, err := e.participants.ListByIdentity(ctx, identity)
	if err != nil {
		return err
	}
	for _, row := range rows {
		caps, ok := row.Permissions.(capability.Set)
		if !ok {
			caps = capability.Normalize(row.Role, row.Permissions)
		}
		if existing, found := out[row.ExchangeID]; found {
			caps = existing.Merge(caps)
		}
		out[row.ExchangeID] = caps
	}
	return nil
}

func mergeTemplate(out map[primitive.ObjectID]capability.Set, ids []primitive.ObjectID, tmpl capability.Set) {
	for _, id := range ids {
		if existing, ok := out[id]; ok {
			out[id] = existing.Merge(tmpl)
		} else {
			out[id] = tmpl.Clone()
		}
	}
}
