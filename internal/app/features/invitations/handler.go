// internal/app/features/invitations/handler.go
package invitations

import (
	"github.com/provident1031/exchangehub/internal/app/access/reconcile"
	"github.com/provident1031/exchangehub/internal/app/access/visibility"
	contactstore "github.com/provident1031/exchangehub/internal/app/store/contacts"
	invitationstore "github.com/provident1031/exchangehub/internal/app/store/invitations"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the invitation
// lifecycle: create, accept (promotion to participant), cancel.
type Handler struct {
	Invitations  *invitationstore.Store
	Contacts     *contactstore.Store
	Users        *userstore.Store
	Participants *participantstore.Store
	Reconciler   *reconcile.Reconciler
	Engine       *visibility.Engine
	Log          *zap.Logger
}

func NewHandler(
	invitations *invitationstore.Store,
	contacts *contactstore.Store,
	users *userstore.Store,
	participants *participantstore.Store,
	reconciler *reconcile.Reconciler,
	engine *visibility.Engine,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Invitations:  invitations,
		Contacts:     contacts,
		Users:        users,
		Participants: participants,
		Reconciler:   reconciler,
		Engine:       engine,
		Log:          logger,
	}
}
