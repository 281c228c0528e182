// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/provident1031/exchangehub/internal/app/access/reconcile"
	contactstore "github.com/provident1031/exchangehub/internal/app/store/contacts"
	invitationstore "github.com/provident1031/exchangehub/internal/app/store/invitations"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"github.com/provident1031/exchangehub/internal/app/system/tasks"
	"github.com/provident1031/exchangehub/internal/app/system/timeouts"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// taskRunner holds the background job runner between Startup and
// Shutdown. WAFFLE's hook signatures do not carry app state besides
// DBDeps, so the runner lives here.
var taskRunner *tasks.Runner

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeout overrides applied from environment", zap.Int("count", n))
	}

	if err := ensureAdmin(ctx, deps.MongoDatabase, appCfg.AdminEmail, logger); err != nil {
		return err
	}

	startBackgroundJobs(appCfg, deps, logger)
	return nil
}

// ensureAdmin promotes (or creates) the configured bootstrap admin so a
// fresh deployment has at least one account that can administer it.
// A blank email skips the step; an existing admin is left alone.
func ensureAdmin(ctx context.Context, db *mongo.Database, email string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}

	users := userstore.New(db)
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == mongo.ErrNoDocuments:
		created, err := users.Create(ctx, models.User{
			FullName: "Administrator",
			Email:    email,
			Role:     models.RoleAdmin,
		})
		if err != nil {
			logger.Error("admin bootstrap: create failed", zap.String("email", email), zap.Error(err))
			return err
		}
		logger.Info("admin bootstrap: created admin user",
			zap.String("email", email), zap.String("user_id", created.ID.Hex()))
		return nil
	case err != nil:
		logger.Error("admin bootstrap: lookup failed", zap.String("email", email), zap.Error(err))
		return err
	}

	if u.Role == models.RoleAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		logger.Error("admin bootstrap: promote failed", zap.String("email", email), zap.Error(err))
		return err
	}
	logger.Info("admin bootstrap: promoted existing user to admin",
		zap.String("email", email), zap.String("user_id", u.ID.Hex()),
		zap.String("previous_role", u.Role))
	return nil
}

// startBackgroundJobs starts the periodic linkage sweep and invitation
// expiry jobs. The runner is stopped in Shutdown.
func startBackgroundJobs(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	db := deps.MongoDatabase
	rec := reconcile.New(
		userstore.New(db),
		contactstore.New(db),
		participantstore.New(db),
		logger,
	)

	jobs := []tasks.Job{
		tasks.InvitationExpiryJob(invitationstore.New(db, appCfg.InvitationExpiry), logger),
	}
	if appCfg.ReconcileInterval > 0 {
		jobs = append(jobs, tasks.ReconcileSweepJob(rec, logger, appCfg.ReconcileInterval))
	} else {
		logger.Info("reconcile sweep disabled (reconcile_interval <= 0)")
	}

	taskRunner = tasks.NewRunner(logger, jobs...)
	taskRunner.Start(context.Background())
}
