// internal/app/features/participants/handler.go
package participants

import (
	"github.com/provident1031/exchangehub/internal/app/access/visibility"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for participant
// management.
type Handler struct {
	Participants *participantstore.Store
	Users        *userstore.Store
	Engine       *visibility.Engine
	Log          *zap.Logger
}

func NewHandler(participants *participantstore.Store, users *userstore.Store, engine *visibility.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Participants: participants,
		Users:        users,
		Engine:       engine,
		Log:          logger,
	}
}
