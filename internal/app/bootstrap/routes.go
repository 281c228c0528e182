// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/provident1031/exchangehub/internal/app/access/delegation"
	"github.com/provident1031/exchangehub/internal/app/access/identity"
	"github.com/provident1031/exchangehub/internal/app/access/reconcile"
	"github.com/provident1031/exchangehub/internal/app/access/visibility"
	adminfeature "github.com/provident1031/exchangehub/internal/app/features/admin"
	assignmentsfeature "github.com/provident1031/exchangehub/internal/app/features/assignments"
	exchangesfeature "github.com/provident1031/exchangehub/internal/app/features/exchanges"
	healthfeature "github.com/provident1031/exchangehub/internal/app/features/health"
	invitationsfeature "github.com/provident1031/exchangehub/internal/app/features/invitations"
	logoutfeature "github.com/provident1031/exchangehub/internal/app/features/logout"
	participantsfeature "github.com/provident1031/exchangehub/internal/app/features/participants"
	userinfofeature "github.com/provident1031/exchangehub/internal/app/features/userinfo"
	assignmentstore "github.com/provident1031/exchangehub/internal/app/store/assignments"
	contactstore "github.com/provident1031/exchangehub/internal/app/store/contacts"
	exchangestore "github.com/provident1031/exchangehub/internal/app/store/exchanges"
	invitationstore "github.com/provident1031/exchangehub/internal/app/store/invitations"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"github.com/provident1031/exchangehub/internal/app/system/auth"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. The wiring runs bottom-up:
// stores over collections, then the access layer (identity, delegation,
// visibility, reconcile) over the stores, then feature handlers over
// the access layer, then routes over the handlers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data
	// on each request. Role changes, deactivations, and newly reconciled
	// contact links take effect without re-login.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Stores
	users := userstore.New(db)
	contacts := contactstore.New(db)
	exchanges := exchangestore.New(db)
	participants := participantstore.New(db)
	assignments := assignmentstore.New(db)
	invitations := invitationstore.New(db, appCfg.InvitationExpiry)

	// Access layer
	identityResolver := identity.New(users, contacts, logger)
	delegationResolver := delegation.New(assignments, participants)
	engine := visibility.New(exchanges, participants, delegationResolver, logger)
	reconciler := reconcile.New(users, contacts, participants, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Session introspection for front ends
	userinfoHandler := userinfofeature.NewHandler()
	r.Mount("/api/userinfo", userinfofeature.Routes(userinfoHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Exchanges plus their nested participant rosters and invitations
	participantsHandler := participantsfeature.NewHandler(participants, users, engine, logger)
	invitationsHandler := invitationsfeature.NewHandler(invitations, contacts, users, participants, reconciler, engine, logger)
	exchangesHandler := exchangesfeature.NewHandler(exchanges, engine, logger)
	r.Mount("/exchanges", exchangesfeature.Routes(exchangesHandler, participantsHandler, invitationsHandler))

	// Row-addressed participant operations
	r.Mount("/participants", participantsfeature.Routes(participantsHandler))

	// Token-addressed invitation operations
	r.Mount("/invitations", invitationsfeature.Routes(invitationsHandler))

	// Agency delegation assignments (admin only)
	assignmentsHandler := assignmentsfeature.NewHandler(assignments, contacts, logger)
	r.Mount("/assignments", assignmentsfeature.Routes(assignmentsHandler))

	// Operator endpoints (admin only)
	adminHandler := adminfeature.NewHandler(reconciler, identityResolver, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler))

	return r, nil
}
