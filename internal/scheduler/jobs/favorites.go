package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/borsa-screener/pkg/logger"
)

// Reloader re-reads persisted state
type Reloader interface {
	Reload(ctx context.Context) error
}

// FavoritesSyncJob reloads favorites from a shared backend (redis/postgres),
// picking up changes made by other instances
type FavoritesSyncJob struct {
	store  Reloader
	logger *logger.Logger
}

// NewFavoritesSyncJob creates a new favorites sync job
func NewFavoritesSyncJob(store Reloader, log *logger.Logger) *FavoritesSyncJob {
	return &FavoritesSyncJob{
		store:  store,
		logger: log,
	}
}

// Name returns the job name
func (j *FavoritesSyncJob) Name() string {
	return "favorites_sync"
}

// Schedule returns the cron schedule (every minute)
func (j *FavoritesSyncJob) Schedule() string {
	return "0 * * * * *"
}

// Run reloads the favorites store
func (j *FavoritesSyncJob) Run(ctx context.Context) error {
	if err := j.store.Reload(ctx); err != nil {
		return fmt.Errorf("favorites reload: %w", err)
	}
	j.logger.Debug("Favorites reloaded")
	return nil
}
