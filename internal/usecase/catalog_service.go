package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"job-board/internal/domain"
	"job-board/internal/listing"
	"job-board/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	featuredJobsLimit      = 6
	featuredCompaniesLimit = 8
)

// CatalogService holds the job and company collections loaded from the
// feeds. A failed reload keeps the previous collections.
type CatalogService struct {
	jobsSource      domain.FeedSource
	companiesSource domain.FeedSource
	logger          *slog.Logger
	tracer          trace.Tracer

	mu           sync.RWMutex
	jobs         []domain.Job
	companies    []domain.Company
	jobsErr      error
	companiesErr error
	loaded       bool
	listeners    []func(ready bool)
}

var _ domain.Catalog = (*CatalogService)(nil)

// NewCatalogService creates a catalog over the two feeds. companiesSource
// may be nil.
func NewCatalogService(jobsSource, companiesSource domain.FeedSource, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		jobsSource:      jobsSource,
		companiesSource: companiesSource,
		logger:          logger.With("component", "catalog"),
		tracer:          otel.Tracer("job-board-usecase"),
		jobsErr:         fmt.Errorf("%w: not loaded yet", domain.ErrFeedUnavailable),
	}
}

// OnReadyChange registers fn to be called after each load with whether
// jobs are available.
func (s *CatalogService) OnReadyChange(fn func(ready bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load fetches both feeds. It returns the jobs feed error, which is the one
// that makes the listing unusable; a companies failure only affects the
// company pages.
func (s *CatalogService) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "service.CatalogLoad")
	defer span.End()

	jobs, jobsErr := s.loadJobs(ctx)
	var companies []domain.Company
	var companiesErr error
	if s.companiesSource != nil {
		companies, companiesErr = s.loadCompanies(ctx)
	}

	s.mu.Lock()
	if jobsErr == nil {
		s.jobs, s.loaded = jobs, true
		metrics.CatalogJobs.Set(float64(len(jobs)))
	}
	if !s.loaded {
		s.jobsErr = jobsErr
	} else {
		s.jobsErr = nil
	}
	if companiesErr == nil {
		s.companies = companies
		s.companiesErr = nil
	} else if s.companies == nil {
		s.companiesErr = companiesErr
	}
	ready := s.loaded
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ready)
	}

	if jobsErr != nil {
		span.RecordError(jobsErr)
		span.SetStatus(codes.Error, "failed to load jobs feed")
		return jobsErr
	}
	span.SetAttributes(attribute.Int("catalog.jobs", len(jobs)), attribute.Int("catalog.companies", len(companies)))
	return nil
}

func (s *CatalogService) loadJobs(ctx context.Context) ([]domain.Job, error) {
	data, err := s.jobsSource.Fetch(ctx)
	if err == nil {
		var jobs []domain.Job
		jobs, err = DecodeJobs(data)
		if err == nil {
			for i := range jobs {
				if verr := jobs[i].Validate(); verr != nil {
					s.logger.Warn("suspicious job record", "error", verr)
				}
			}
			metrics.FeedLoadsTotal.WithLabelValues("jobs", "success").Inc()
			s.logger.Info("jobs feed loaded", "source", s.jobsSource.Name(), "count", len(jobs))
			return jobs, nil
		}
	}
	if !errors.Is(err, domain.ErrFeedUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrFeedUnavailable, err)
	}
	metrics.FeedLoadsTotal.WithLabelValues("jobs", "failed").Inc()
	s.logger.Error("failed to load jobs feed", "source", s.jobsSource.Name(), "error", err)
	return nil, err
}

func (s *CatalogService) loadCompanies(ctx context.Context) ([]domain.Company, error) {
	data, err := s.companiesSource.Fetch(ctx)
	if err == nil {
		var companies []domain.Company
		companies, err = DecodeCompanies(data)
		if err == nil {
			metrics.FeedLoadsTotal.WithLabelValues("companies", "success").Inc()
			s.logger.Info("companies feed loaded", "source", s.companiesSource.Name(), "count", len(companies))
			return companies, nil
		}
	}
	if !errors.Is(err, domain.ErrFeedUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrFeedUnavailable, err)
	}
	metrics.FeedLoadsTotal.WithLabelValues("companies", "failed").Inc()
	s.logger.Error("failed to load companies feed", "source", s.companiesSource.Name(), "error", err)
	return nil, err
}

// DecodeJobs parses a jobs feed document.
func DecodeJobs(data []byte) ([]domain.Job, error) {
	jobs := []domain.Job{}
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("%w: decode jobs: %w", domain.ErrFeedUnavailable, err)
	}
	return jobs, nil
}

// DecodeCompanies parses a companies feed document.
func DecodeCompanies(data []byte) ([]domain.Company, error) {
	companies := []domain.Company{}
	if err := json.Unmarshal(data, &companies); err != nil {
		return nil, fmt.Errorf("%w: decode companies: %w", domain.ErrFeedUnavailable, err)
	}
	return companies, nil
}

// Ready reports whether a jobs collection is available.
func (s *CatalogService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LoadErr is the load failure to show while no jobs are available.
func (s *CatalogService) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobsErr
}

// Jobs returns the current collection. The slice is shared and must not be
// modified.
func (s *CatalogService) Jobs() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs
}

func (s *CatalogService) Companies() []domain.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.companies
}

// Job looks a job up by id.
func (s *CatalogService) Job(id int) (domain.Job, error) {
	for _, job := range s.Jobs() {
		if job.ID == id {
			return job, nil
		}
	}
	return domain.Job{}, domain.ErrJobNotFound
}

// Company looks a company up by exact name.
func (s *CatalogService) Company(name string) (domain.Company, error) {
	for _, c := range s.Companies() {
		if c.Name == name {
			return c, nil
		}
	}
	return domain.Company{}, domain.ErrCompanyNotFound
}

// CompanyProfile returns a company together with the jobs a search for its
// name finds, the same list its "Ver Vagas" link opens.
func (s *CatalogService) CompanyProfile(name string) (domain.Company, []domain.Job, error) {
	c, err := s.Company(name)
	if err != nil {
		return domain.Company{}, nil, err
	}
	return c, listing.Filter(s.Jobs(), domain.Criteria{Search: name}), nil
}

// Featured returns the home page selections and their load errors.
func (s *CatalogService) Featured() (jobs []domain.Job, jobsErr error, companies []domain.Company, companiesErr error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs = s.jobs[:min(len(s.jobs), featuredJobsLimit)]
	companies = s.companies[:min(len(s.companies), featuredCompaniesLimit)]
	return jobs, s.jobsErr, companies, s.companiesErr
}

// CompaniesErr is the load failure to show while no companies are available.
func (s *CatalogService) CompaniesErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.companiesErr
}
