package jobs

import (
	"context"

	"github.com/wonny/intrinsic/internal/diskcache"
	"github.com/wonny/intrinsic/pkg/logger"
)

// CacheCleanupJob prunes expired entries from the response caches
type CacheCleanupJob struct {
	stores []*diskcache.Store
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(log *logger.Logger, stores ...*diskcache.Store) *CacheCleanupJob {
	return &CacheCleanupJob{
		stores: stores,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (daily at 6 AM)
func (j *CacheCleanupJob) Schedule() string {
	return "0 0 6 * * *"
}

// Run removes cache entries past their TTL
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	removed := 0
	for _, store := range j.stores {
		removed += store.PruneExpired()
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Cache cleanup completed")
	}

	return nil
}
