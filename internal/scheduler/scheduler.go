// Package scheduler runs periodic ingestion of every catalog on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/couchcryptid/obs-catalog-service/internal/observability"
)

// ErrUnknownJob is returned by RunNow for a provider with no registered job.
var ErrUnknownJob = errors.New("no ingest job")

// Triggerer ingests one provider. catalog.Registry satisfies it.
type Triggerer interface {
	Trigger(ctx context.Context, provider string)
}

// JobInfo describes a registered ingest job.
type JobInfo struct {
	Name     string    `json:"name"`
	Provider string    `json:"provider"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run,omitzero"` // zero if never run
	NextRun  time.Time `json:"next_run,omitzero"` // zero if not scheduled
}

// Scheduler owns one gocron job per provider.
type Scheduler struct {
	mu        sync.Mutex
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job // provider -> job
	schedule  string
	target    Triggerer
	logger    *slog.Logger
	metrics   *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler that triggers target on the cron expression
// schedule (5 fields, or 6 with leading seconds). metrics may be nil.
func New(schedule string, target Triggerer, logger *slog.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create cron scheduler: %w", err)
	}
	if logger == nil {
		logger = observability.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		schedule:  schedule,
		target:    target,
		logger:    logger,
		metrics:   metrics,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// AddProvider registers the ingest job for provider. A job still running when
// its next tick arrives causes that tick to be skipped.
func (s *Scheduler) AddProvider(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[provider]; exists {
		return fmt.Errorf("ingest job already scheduled for %s", provider)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(s.schedule, true),
		gocron.NewTask(s.target.Trigger, s.ctx, provider),
		gocron.WithName(jobName(provider)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create ingest job for %s: %w", provider, err)
	}

	s.jobs[provider] = j
	s.logger.Info("ingest job scheduled", "provider", provider, "cron", s.schedule)
	return nil
}

// RunNow runs provider's job immediately, outside its schedule. The job runs
// asynchronously; a job already running is not started twice.
func (s *Scheduler) RunNow(provider string) error {
	s.mu.Lock()
	j, ok := s.jobs[provider]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w for %s", ErrUnknownJob, provider)
	}
	return j.RunNow()
}

// ListJobs returns the registered jobs ordered by provider.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for provider, j := range s.jobs {
		info := JobInfo{
			Name:     jobName(provider),
			Provider: provider,
			Schedule: s.schedule,
		}
		if lr, err := j.LastRun(); err == nil {
			info.LastRun = lr
		}
		if nr, err := j.NextRun(); err == nil {
			info.NextRun = nr
		}
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b JobInfo) int { return strings.Compare(a.Provider, b.Provider) })
	return infos
}

// Start begins executing the registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	if s.metrics != nil {
		s.metrics.SchedulerRunning.Set(1)
	}
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop cancels in-flight ingests and waits for them to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	err := s.scheduler.Shutdown()
	if s.metrics != nil {
		s.metrics.SchedulerRunning.Set(0)
	}
	return err
}

func jobName(provider string) string {
	return "ingest:" + provider
}
