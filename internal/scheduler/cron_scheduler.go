// internal/scheduler/cron_scheduler.go
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"job-board/internal/domain"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// cronScheduler runs the service's housekeeping tasks: feed refreshes and
// session sweeps.
type cronScheduler struct {
	cron   *cron.Cron
	mu     sync.Mutex
	tasks  map[string]cron.EntryID
	ctx    context.Context
	logger *slog.Logger
	tracer trace.Tracer
}

// NewCronScheduler accepts standard five-field specs and descriptors such
// as "@every 6h".
func NewCronScheduler(logger *slog.Logger) domain.Scheduler {
	return &cronScheduler{
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		tasks:  make(map[string]cron.EntryID),
		ctx:    context.Background(),
		logger: logger.With("component", "cron-scheduler"),
		tracer: otel.Tracer("job-board-scheduler"),
	}
}

// Start runs the scheduler until ctx is done. Tasks receive ctx.
func (s *cronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.logger.Info("cron scheduler started")
	s.cron.Start()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopping...")
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("cron scheduler stopped")
	return ctx.Err()
}

// AddTask registers fn under name, replacing a task of the same name.
func (s *cronScheduler) AddTask(name, spec string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.tasks[name]; ok {
		s.cron.Remove(entryID)
	}

	wrapper := &cronTaskWrapper{
		name:   name,
		fn:     fn,
		ctx:    s.runContext,
		logger: s.logger.With("task", name),
		tracer: s.tracer,
	}

	entryID, err := s.cron.AddJob(spec, wrapper)
	if err != nil {
		s.logger.Error("failed to add task to cron", "task", name, "error", err)
		return err
	}

	s.tasks[name] = entryID
	s.logger.Info("added task to scheduler", "task", name, "schedule", spec)
	return nil
}

// RemoveTask unregisters a task.
func (s *cronScheduler) RemoveTask(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.tasks[name]; ok {
		s.cron.Remove(entryID)
		delete(s.tasks, name)
		s.logger.Info("removed task from scheduler", "task", name)
	}
	return nil
}

func (s *cronScheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

type cronTaskWrapper struct {
	name   string
	fn     func(ctx context.Context) error
	ctx    func() context.Context
	logger *slog.Logger
	tracer trace.Tracer
}

// Run is called by the cron library.
func (w *cronTaskWrapper) Run() {
	ctx, span := w.tracer.Start(w.ctx(), "scheduler.Run",
		trace.WithAttributes(attribute.String("task.name", w.name)))
	defer span.End()

	if err := w.fn(ctx); err != nil {
		w.logger.Error("scheduled task failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "task failed")
	}
}
