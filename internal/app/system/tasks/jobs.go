// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/provident1031/exchangehub/internal/app/access/reconcile"
	invitationstore "github.com/provident1031/exchangehub/internal/app/store/invitations"
	"go.uber.org/zap"
)

// ReconcileSweepJob creates a job that periodically links unlinked
// users to contacts and backfills contact-only participant rows. The
// sweep is idempotent, so overlapping runs only waste a few reads.
func ReconcileSweepJob(rec *reconcile.Reconciler, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "reconcile-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			rep, err := rec.Run(ctx)
			if err != nil {
				return err
			}
			if rep.UsersLinked > 0 || rep.ParticipantsBound > 0 || len(rep.Orphans) > 0 {
				logger.Info("reconcile sweep made changes",
					zap.Int("users_linked", rep.UsersLinked),
					zap.Int("participants_bound", rep.ParticipantsBound),
					zap.Int("orphans", len(rep.Orphans)))
			}
			return nil
		},
	}
}

// InvitationExpiryJob creates a job that sweeps pending invitations
// past their expiry into the expired status. Acceptance also expires
// lazily, so this only exists to keep listings honest.
func InvitationExpiryJob(invStore *invitationstore.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "invitation-expiry",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := invStore.MarkExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("expired stale invitations", zap.Int64("count", count))
			}
			return nil
		},
	}
}
