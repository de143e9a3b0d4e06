package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"job-board/internal/debounce"
	"job-board/internal/domain"
	"job-board/internal/listing"
	"job-board/internal/metrics"
	"job-board/internal/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// JobSource supplies the collection a new session starts from.
type JobSource interface {
	Ready() bool
	LoadErr() error
	Jobs() []domain.Job
}

// session is one listing controller together with its typing debouncer.
// mu serialises the controller between handlers and the debounce timer.
// saveMu orders preference writes against the removal done by Close.
type session struct {
	id string

	mu          sync.Mutex
	ctrl        *listing.Controller
	filtered    bool
	sorted      bool
	closed      bool
	pending     domain.Criteria
	search      *debounce.Debouncer
	lastSeen    time.Time
	subscribers map[chan domain.ListingView]struct{}

	saveMu sync.Mutex
}

// ListingService keeps the listing sessions of connected clients.
type ListingService struct {
	jobs     JobSource
	storage  *storage.Storage
	debounce time.Duration
	now      func() time.Time
	logger   *slog.Logger
	tracer   trace.Tracer

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewListingService(jobs JobSource, store *storage.Storage, searchDebounce time.Duration, logger *slog.Logger) *ListingService {
	return &ListingService{
		jobs:     jobs,
		storage:  store,
		debounce: searchDebounce,
		now:      time.Now,
		logger:   logger.With("component", "listing"),
		tracer:   otel.Tracer("job-board-usecase"),
		sessions: make(map[string]*session),
	}
}

// Open starts a session seeded from the q, location and company parameters.
// When any of them is present the filters are applied right away.
func (s *ListingService) Open(ctx context.Context, q, location, company string) (string, domain.ListingView, error) {
	ctx, span := s.tracer.Start(ctx, "service.OpenSession")
	defer span.End()

	if !s.jobs.Ready() {
		err := s.jobs.LoadErr()
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog not loaded")
		return "", domain.ListingView{}, err
	}

	prefs := domain.SessionPreferences{Sort: domain.DefaultSortMode}
	prefs.Criteria, prefs.Filtered = domain.CriteriaFromQuery(q, location, company)

	id := uuid.New().String()
	sess := s.newSession(id, prefs)
	s.mu.Lock()
	s.sessions[id] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	sess.mu.Lock()
	view := sess.ctrl.View()
	sess.mu.Unlock()
	s.savePreferences(ctx, sess, prefs)

	span.SetAttributes(attribute.String("session.id", id), attribute.Bool("session.filtered", prefs.Filtered))
	s.logger.Info("session opened", "session_id", id, "filtered", prefs.Filtered)
	return id, view, nil
}

// newSession builds the controller and replays prefs onto it.
func (s *ListingService) newSession(id string, prefs domain.SessionPreferences) *session {
	sess := &session{
		id:          id,
		ctrl:        listing.NewController(s.jobs.Jobs()),
		pending:     prefs.Criteria,
		lastSeen:    s.now(),
		subscribers: make(map[chan domain.ListingView]struct{}),
	}
	if prefs.Sorted && prefs.Sort != "" {
		sess.ctrl.ChangeSort(prefs.Sort)
		sess.sorted = true
	}
	if prefs.Filtered {
		sess.ctrl.ApplyFilters(prefs.Criteria)
		sess.filtered = true
		metrics.ListingRecomputesTotal.WithLabelValues("filter").Inc()
	}
	sess.search = debounce.New(s.debounce, func() { s.applyPending(sess) })
	return sess
}

// lookup returns the live session, rebuilding it from stored preferences
// when it was swept or the process restarted.
func (s *ListingService) lookup(ctx context.Context, id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.mu.Lock()
		sess.lastSeen = s.now()
		sess.mu.Unlock()
		return sess, nil
	}

	var prefs domain.SessionPreferences
	if !s.storage.Get(ctx, storage.PreferencesKey(id), &prefs) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if !s.jobs.Ready() {
		return nil, s.jobs.LoadErr()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess = s.newSession(id, prefs)
	s.sessions[id] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.logger.Info("session restored", "session_id", id)
	return sess, nil
}

// View returns the current view of a session.
func (s *ListingService) View(ctx context.Context, id string) (domain.ListingView, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return domain.ListingView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.ctrl.View(), nil
}

// ApplyFilters recomputes the view for criteria and moves to page 1. Any
// pending debounced search is superseded.
func (s *ListingService) ApplyFilters(ctx context.Context, id string, criteria domain.Criteria) (domain.ListingView, error) {
	ctx, span := s.tracer.Start(ctx, "service.ApplyFilters", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	sess, err := s.lookup(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session lookup failed")
		return domain.ListingView{}, err
	}
	sess.mu.Lock()
	sess.pending = criteria
	sess.mu.Unlock()
	sess.search.Flush()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.ctrl.View(), nil
}

// Input records criteria typed into the search field. They are applied once
// the input has been quiet for the configured debounce.
func (s *ListingService) Input(ctx context.Context, id string, criteria domain.Criteria) error {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.pending = criteria
	sess.mu.Unlock()
	sess.search.Trigger()
	return nil
}

// applyPending runs from the debouncer, either on its timer or on Flush.
func (s *ListingService) applyPending(sess *session) {
	sess.mu.Lock()
	sess.ctrl.ApplyFilters(sess.pending)
	sess.filtered = true
	view := sess.ctrl.View()
	prefs := sess.preferencesLocked()
	sess.mu.Unlock()

	metrics.ListingRecomputesTotal.WithLabelValues("filter").Inc()
	s.savePreferences(context.Background(), sess, prefs)
	sess.publish(view)
}

// ChangeSort reorders the session view and moves to page 1.
func (s *ListingService) ChangeSort(ctx context.Context, id string, mode domain.SortMode) (domain.ListingView, error) {
	ctx, span := s.tracer.Start(ctx, "service.ChangeSort",
		trace.WithAttributes(attribute.String("session.id", id), attribute.String("sort", string(mode))))
	defer span.End()

	sess, err := s.lookup(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session lookup failed")
		return domain.ListingView{}, err
	}
	sess.mu.Lock()
	sess.ctrl.ChangeSort(mode)
	sess.sorted = true
	view := sess.ctrl.View()
	prefs := sess.preferencesLocked()
	sess.mu.Unlock()

	metrics.ListingRecomputesTotal.WithLabelValues("sort").Inc()
	s.savePreferences(ctx, sess, prefs)
	sess.publish(view)
	return view, nil
}

// ChangePage moves the session to page. Out of range pages leave the view
// unchanged and report false.
func (s *ListingService) ChangePage(ctx context.Context, id string, page int) (domain.ListingView, bool, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return domain.ListingView{}, false, err
	}
	sess.mu.Lock()
	applied := sess.ctrl.ChangePage(page)
	view := sess.ctrl.View()
	sess.mu.Unlock()
	if applied {
		sess.publish(view)
	}
	return view, applied, nil
}

// Subscribe returns a channel receiving the view after every change of the
// session, including debounced searches. The channel keeps only the latest
// view and is closed when the session is closed. cancel must be called to
// release it.
func (s *ListingService) Subscribe(ctx context.Context, id string) (<-chan domain.ListingView, func(), error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.ListingView, 1)
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	sess.subscribers[ch] = struct{}{}
	sess.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sess.mu.Lock()
			delete(sess.subscribers, ch)
			sess.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

// Close drops a session and its stored preferences. Subscribers see their
// channel closed.
func (s *ListingService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if !ok {
		var prefs domain.SessionPreferences
		if !s.storage.Get(ctx, storage.PreferencesKey(id), &prefs) {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		s.storage.Remove(ctx, storage.PreferencesKey(id))
		s.logger.Info("session closed", "session_id", id)
		return nil
	}

	sess.search.Stop()
	sess.mu.Lock()
	sess.closed = true
	for ch := range sess.subscribers {
		close(ch)
		delete(sess.subscribers, ch)
	}
	sess.mu.Unlock()

	// A debounced search may be writing preferences right now; wait for it
	// so the removal is the last write.
	sess.saveMu.Lock()
	s.storage.Remove(ctx, storage.PreferencesKey(id))
	sess.saveMu.Unlock()

	s.logger.Info("session closed", "session_id", id)
	return nil
}

// Sweep evicts sessions idle for longer than ttl. Their preferences stay in
// storage so a later request rebuilds them.
func (s *ListingService) Sweep(ctx context.Context, ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	var evicted []*session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff) && len(sess.subscribers) == 0
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted = append(evicted, sess)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.search.Stop()
	}
	if len(evicted) > 0 {
		s.logger.Info("idle sessions evicted", "count", len(evicted))
	}
	return len(evicted)
}

// Exists reports whether id names a live or stored session.
func (s *ListingService) Exists(ctx context.Context, id string) bool {
	_, err := s.lookup(ctx, id)
	return err == nil
}

// Query runs the pipeline once without a session: sort (when given), filter
// (when any criterion is set), then move to page.
func (s *ListingService) Query(ctx context.Context, criteria domain.Criteria, mode domain.SortMode, page int) (domain.ListingView, error) {
	_, span := s.tracer.Start(ctx, "service.Query")
	defer span.End()

	if !s.jobs.Ready() {
		err := s.jobs.LoadErr()
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog not loaded")
		return domain.ListingView{}, err
	}
	ctrl := listing.NewController(s.jobs.Jobs())
	if mode != "" {
		ctrl.ChangeSort(mode)
	}
	if !criteria.IsZero() {
		ctrl.ApplyFilters(criteria)
	}
	if page > 1 {
		ctrl.ChangePage(page)
	}
	view := ctrl.View()
	span.SetAttributes(attribute.Int("listing.total", view.Total))
	return view, nil
}

// savePreferences stores prefs unless the session has been closed.
func (s *ListingService) savePreferences(ctx context.Context, sess *session, prefs domain.SessionPreferences) {
	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	sess.mu.Lock()
	closed := sess.closed
	sess.mu.Unlock()
	if closed {
		return
	}
	prefs.UpdatedAt = s.now()
	s.storage.Set(ctx, storage.PreferencesKey(sess.id), prefs)
}

func (sess *session) preferencesLocked() domain.SessionPreferences {
	return domain.SessionPreferences{
		Criteria: sess.ctrl.Criteria(),
		Sort:     sess.ctrl.SortMode(),
		Filtered: sess.filtered,
		Sorted:   sess.sorted,
	}
}

// publish hands view to every subscriber, replacing a view they have not
// read yet.
func (sess *session) publish(view domain.ListingView) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	for ch := range sess.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- view:
		default:
		}
	}
}
