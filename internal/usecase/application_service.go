package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"job-board/internal/domain"
	"job-board/internal/metrics"
	"job-board/internal/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ApplyMessage is the answer to an application intent until the application
// flow exists.
func ApplyMessage(jobID int) string {
	return fmt.Sprintf("Funcionalidade de candidatura será implementada em breve. ID da vaga: %d", jobID)
}

// JobLookup finds a job by id.
type JobLookup interface {
	Job(id int) (domain.Job, error)
}

// SessionChecker reports whether a listing session exists.
type SessionChecker interface {
	Exists(ctx context.Context, id string) bool
}

type ApplicationService struct {
	jobs     JobLookup
	sessions SessionChecker
	repo     domain.ApplicationRepository
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewApplicationService(jobs JobLookup, sessions SessionChecker, repo domain.ApplicationRepository, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{
		jobs:     jobs,
		sessions: sessions,
		repo:     repo,
		logger:   logger.With("component", "applications"),
		tracer:   otel.Tracer("job-board-usecase"),
	}
}

// Apply records that the session's user asked to apply to jobID.
func (s *ApplicationService) Apply(ctx context.Context, sessionID string, jobID int) (*domain.ApplicationRecord, string, error) {
	ctx, span := s.tracer.Start(ctx, "service.Apply",
		trace.WithAttributes(attribute.String("session.id", sessionID), attribute.Int("job.id", jobID)))
	defer span.End()

	if !s.sessions.Exists(ctx, sessionID) {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	job, err := s.jobs.Job(jobID)
	if err != nil {
		return nil, "", err
	}

	record := &domain.ApplicationRecord{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		JobID:     job.ID,
		JobTitle:  job.Title,
		Status:    domain.ApplicationStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save application")
		return nil, "", err
	}
	metrics.ApplicationsTotal.Inc()
	s.logger.Info("application recorded", "session_id", sessionID, "job_id", jobID)
	return record, ApplyMessage(jobID), nil
}

// List returns the applications of a session, oldest first.
func (s *ApplicationService) List(ctx context.Context, sessionID string) ([]*domain.ApplicationRecord, error) {
	if !s.sessions.Exists(ctx, sessionID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return s.repo.ListBySession(ctx, sessionID)
}

// ContactService keeps contact form submissions.
type ContactService struct {
	storage *storage.Storage
	logger  *slog.Logger
}

func NewContactService(store *storage.Storage, logger *slog.Logger) *ContactService {
	return &ContactService{storage: store, logger: logger.With("component", "contact")}
}

// Submit stores msg, filling its id and creation time. Fields are expected
// to be validated by the caller.
func (s *ContactService) Submit(ctx context.Context, msg domain.ContactMessage) domain.ContactMessage {
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now().UTC()
	s.storage.Set(ctx, storage.ContactKey(msg.ID), msg)
	s.logger.Info("contact message received", "id", msg.ID, "subject", msg.Subject)
	return msg
}
