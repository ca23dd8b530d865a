package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/obs-catalog-service/internal/scheduler"
)

// Jobs reports and runs the scheduled ingest jobs. *scheduler.Scheduler
// satisfies it.
type Jobs interface {
	ListJobs() []scheduler.JobInfo
	RunNow(provider string) error
}

func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.ListJobs())
}

// handleRunJob queues an out-of-schedule run. It answers 202 because the job
// runs in the scheduler, not in the request.
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	err := s.jobs.RunNow(provider)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		s.logger.Error("run job", "provider", provider, "error", err)
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "provider": provider})
	}
}
