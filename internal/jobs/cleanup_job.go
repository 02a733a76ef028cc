package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/unitasa/social-scheduler/internal/repository"
)

// CleanupJob removes expired pending authorizations. Abandoned OAuth flows
// would otherwise accumulate forever.
type CleanupJob struct {
	pending repository.PendingAuthRepository
}

func NewCleanupJob(pending repository.PendingAuthRepository) *CleanupJob {
	return &CleanupJob{pending: pending}
}

func (c *CleanupJob) CleanPendingAuthorizations() {
	ctx := context.Background()

	if err := c.pending.DeleteExpired(ctx, time.Now()); err != nil {
		slog.Info(err.Error())
	}
}
