// Package scheduler runs periodic background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/good-deeds/board/internal/metrics"
	"github.com/good-deeds/board/internal/service"
)

// Job is a named function run on a cron spec (standard five fields or a
// descriptor such as "@every 5m").
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler owns a cron instance and the jobs registered on it.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

// New validates every job spec. Nothing runs until Run is called.
func New(jobs ...Job) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	for _, j := range jobs {
		if _, err := cron.ParseStandard(j.Spec); err != nil {
			return nil, fmt.Errorf("job %s: invalid cron spec %q: %w", j.Name, j.Spec, err)
		}
	}
	return &Scheduler{cron: c, jobs: jobs}, nil
}

// Run executes each job once, then on its schedule until ctx is done. It
// returns after in-flight jobs have finished.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, j := range s.jobs {
		job := j
		run := func() { s.runJob(ctx, job) }
		if _, err := s.cron.AddFunc(job.Spec, run); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
		slog.Info("scheduler: job added", "job", job.Name, "spec", job.Spec)
		run()
	}

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.Info("scheduler: stopped")
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, j Job) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		slog.Error("scheduler: job failed", "job", j.Name, "error", err)
		return
	}
	slog.Debug("scheduler: job done", "job", j.Name, "duration_ms", time.Since(start).Milliseconds())
}

// ActiveMarkersJob refreshes the active marker gauge from the store.
func ActiveMarkersJob(svc *service.Service, spec string) Job {
	return Job{
		Name: "active-markers",
		Spec: spec,
		Run: func(ctx context.Context) error {
			n, err := svc.CountActiveMarkers(ctx)
			if err != nil {
				return err
			}
			metrics.SetMarkersActive(n)
			return nil
		},
	}
}
