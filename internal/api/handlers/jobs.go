package handlers

import (
	"net/http"

	"github.com/wonny/borsa-screener/internal/scheduler"
)

// JobStatsProvider exposes scheduler statistics
type JobStatsProvider interface {
	GetJobStats() map[string]scheduler.JobStats
}

// JobsHandler reports in-process scheduler state
type JobsHandler struct {
	scheduler JobStatsProvider
}

// NewJobsHandler creates a jobs handler
func NewJobsHandler(s JobStatsProvider) *JobsHandler {
	return &JobsHandler{scheduler: s}
}

// List returns per-job statistics
// GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.scheduler.GetJobStats(),
	})
}
