// Package scheduler fires registered jobs at configured wall-clock times,
// with a redis lease keeping replicas from running the same cycle twice.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/preciousyou/precious-backend/pkg/config"
	"github.com/preciousyou/precious-backend/pkg/logger"
	"github.com/preciousyou/precious-backend/pkg/metrics"
)

// ServiceParams configure the scheduler service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.JobMetrics
	// Times are daily trigger points in "HH:MM" server-local time.
	Times []string
}

// Service owns the cron runner.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.JobMetrics
	cron     *cron.Cron

	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewService validates the trigger times and builds the cron entries.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if len(params.Times) == 0 {
		return nil, fmt.Errorf("at least one trigger time required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	s := &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		cron:     cron.New(),
	}

	for _, raw := range params.Times {
		hour, minute, err := config.ParseTimeOfDay(raw)
		if err != nil {
			return nil, fmt.Errorf("trigger time %q: %w", raw, err)
		}
		spec := fmt.Sprintf("%d %d * * *", minute, hour)
		if _, err := s.cron.AddFunc(spec, s.fire); err != nil {
			return nil, fmt.Errorf("registering trigger %q: %w", raw, err)
		}
	}
	return s, nil
}

// Start arms the triggers. The context bounds every cycle the scheduler runs.
func (s *Service) Start(ctx context.Context) {
	s.baseCtx, s.cancelBase = context.WithCancel(ctx)
	s.cron.Start()
	s.logg.Info(ctx, "scheduler started")
}

// Stop disarms the triggers and waits for an in-flight cycle to finish.
// The cycle itself is not interrupted.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	if s.cancelBase != nil {
		s.cancelBase()
	}
}

func (s *Service) fire() {
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled cycle failed", err)
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another instance holds the cycle lock, skipping")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cycle lock", relErr)
		}
	}()

	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	s.logg.Info(jobCtx, "job start")

	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.ObserveDuration(job.Name(), duration)
	}

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		if s.metrics != nil {
			s.metrics.IncFailure(job.Name())
		}
		return
	}
	s.logg.Info(jobCtx, "job completed")
	if s.metrics != nil {
		s.metrics.IncSuccess(job.Name())
	}
}
