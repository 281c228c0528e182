// internal/app/features/exchanges/handler.go
package exchanges

import (
	"github.com/provident1031/exchangehub/internal/app/access/visibility"
	exchangestore "github.com/provident1031/exchangehub/internal/app/store/exchanges"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the exchanges feature.
type Handler struct {
	Exchanges *exchangestore.Store
	Engine    *visibility.Engine
	Log       *zap.Logger
}

// NewHandler constructs the exchanges Handler. Called from bootstrap
// BuildHandler once stores and the visibility engine exist.
func NewHandler(exchanges *exchangestore.Store, engine *visibility.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Exchanges: exchanges,
		Engine:    engine,
		Log:       logger,
	}
}
