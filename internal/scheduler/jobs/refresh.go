package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/borsa-screener/internal/snapshot"
	"github.com/wonny/borsa-screener/pkg/logger"
)

// Refresher produces a new snapshot
type Refresher interface {
	Refresh(ctx context.Context) (snapshot.Snapshot, error)
}

// SnapshotRefreshJob keeps the latest normalized batch fresh
// Schedule: REFRESH_SCHEDULE (기본: 평일 거래시간 5분마다)
type SnapshotRefreshJob struct {
	refresher Refresher
	schedule  string
	logger    *logger.Logger
}

// NewSnapshotRefreshJob creates a new snapshot refresh job
func NewSnapshotRefreshJob(refresher Refresher, schedule string, log *logger.Logger) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		refresher: refresher,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *SnapshotRefreshJob) Name() string {
	return "snapshot_refresh"
}

// Schedule returns the cron schedule
func (j *SnapshotRefreshJob) Schedule() string {
	return j.schedule
}

// Run fetches and normalizes a new batch
func (j *SnapshotRefreshJob) Run(ctx context.Context) error {
	snap, err := j.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("snapshot refresh: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"records": len(snap.Records),
		"dropped": snap.Dropped,
		"source":  snap.Source,
	}).Info("Snapshot refreshed")

	return nil
}
