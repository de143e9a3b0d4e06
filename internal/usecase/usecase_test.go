package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"job-board/internal/domain"
	"job-board/internal/infra/memory"
	"job-board/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticFeed struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (f *staticFeed) Fetch(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.err
}

func (f *staticFeed) Name() string { return "static" }

func (f *staticFeed) set(data string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data, f.err = []byte(data), err
}

// jobsJSON builds n jobs with ids 1..n; postedDays counts down so sorting
// by date reverses feed order.
func jobsJSON(n int) string {
	out := "["
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ","
		}
		out += fmt.Sprintf(`{"id":%d,"title":"Dev %d","company":"Acme","location":"São Paulo, SP","type":"CLT","level":"Pleno","category":"Tecnologia","salary":"R$ %d.000,00","description":"Vaga %d","postedDays":%d,"skills":["Go"]}`,
			i, i, i, i, n-i)
	}
	return out + "]"
}

const companiesJSON = `[
 {"name":"Acme","sector":"Tecnologia","description":"Acme","employees":"500+","location":"São Paulo","openJobs":3},
 {"name":"Beta","sector":"Varejo","description":"Beta","employees":120,"location":"Recife"}
]`

func loadedCatalog(t *testing.T, jobs int) *CatalogService {
	t.Helper()
	c := NewCatalogService(&staticFeed{data: []byte(jobsJSON(jobs))}, &staticFeed{data: []byte(companiesJSON)}, discard)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func TestCatalogService_Load(t *testing.T) {
	c := loadedCatalog(t, 12)

	assert.True(t, c.Ready())
	assert.NoError(t, c.LoadErr())
	assert.Len(t, c.Jobs(), 12)
	assert.Len(t, c.Companies(), 2)

	job, err := c.Job(3)
	require.NoError(t, err)
	assert.Equal(t, "Dev 3", job.Title)

	_, err = c.Job(99)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	company, err := c.Company("Beta")
	require.NoError(t, err)
	assert.Equal(t, domain.Headcount("120"), company.Employees)

	_, err = c.Company("beta")
	assert.ErrorIs(t, err, domain.ErrCompanyNotFound)
}

func TestCatalogService_LoadFailure(t *testing.T) {
	jobs := &staticFeed{}
	jobs.set("not json", nil)
	c := NewCatalogService(jobs, nil, discard)

	var states []bool
	c.OnReadyChange(func(ready bool) { states = append(states, ready) })

	err := c.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
	assert.False(t, c.Ready())
	assert.ErrorIs(t, c.LoadErr(), domain.ErrFeedUnavailable)

	jobs.set(jobsJSON(2), nil)
	require.NoError(t, c.Load(context.Background()))
	assert.True(t, c.Ready())

	// A failed refresh keeps the last good collection.
	jobs.set("", errors.New("boom"))
	assert.Error(t, c.Load(context.Background()))
	assert.True(t, c.Ready())
	assert.Len(t, c.Jobs(), 2)

	assert.Equal(t, []bool{false, true, true}, states)
}

func TestCatalogService_FeaturedAndProfile(t *testing.T) {
	c := loadedCatalog(t, 9)

	jobs, jobsErr, companies, companiesErr := c.Featured()
	assert.NoError(t, jobsErr)
	assert.NoError(t, companiesErr)
	require.Len(t, jobs, 6)
	assert.Equal(t, 1, jobs[0].ID)
	assert.Equal(t, 6, jobs[5].ID)
	assert.Len(t, companies, 2)

	company, companyJobs, err := c.CompanyProfile("Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", company.Name)
	assert.Len(t, companyJobs, 9)

	_, _, err = c.CompanyProfile("Nope")
	assert.ErrorIs(t, err, domain.ErrCompanyNotFound)
}

func TestCatalogService_FeaturedWithoutCompanies(t *testing.T) {
	companies := &staticFeed{}
	companies.set("", errors.New("down"))
	c := NewCatalogService(&staticFeed{data: []byte(jobsJSON(3))}, companies, discard)
	require.NoError(t, c.Load(context.Background()))

	jobs, jobsErr, list, companiesErr := c.Featured()
	assert.NoError(t, jobsErr)
	assert.Len(t, jobs, 3)
	assert.Empty(t, list)
	assert.Error(t, companiesErr)
}

func newListingService(t *testing.T, jobs int, wait time.Duration) (*ListingService, *storage.Storage) {
	t.Helper()
	store := storage.New(memory.NewKVStore(), discard)
	return NewListingService(loadedCatalog(t, jobs), store, wait, discard), store
}

func TestListingService_OpenUnfiltered(t *testing.T) {
	svc, _ := newListingService(t, 25, time.Millisecond)

	id, view, err := svc.Open(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 25, view.Total)
	assert.Equal(t, 3, view.TotalPages)
	assert.Equal(t, 1, view.Page)
	// Feed order until the first filter or sort.
	assert.Equal(t, 1, view.Jobs[0].ID)
}

func TestListingService_OpenSeeded(t *testing.T) {
	svc, _ := newListingService(t, 25, time.Millisecond)

	_, view, err := svc.Open(context.Background(), "ignored", "", "Dev 2")
	require.NoError(t, err)
	assert.Equal(t, "Dev 2", view.Criteria.Search)
	// Dev 2 and Dev 20..25, sorted by ascending postedDays.
	require.Equal(t, 7, view.Total)
	assert.Equal(t, 25, view.Jobs[0].ID)
	assert.Equal(t, 2, view.Jobs[6].ID)
}

func TestListingService_OpenBeforeLoad(t *testing.T) {
	jobs := &staticFeed{}
	jobs.set("", errors.New("down"))
	catalog := NewCatalogService(jobs, nil, discard)
	svc := NewListingService(catalog, storage.New(memory.NewKVStore(), discard), time.Millisecond, discard)

	_, _, err := svc.Open(context.Background(), "", "", "")
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}

func TestListingService_SortFilterPage(t *testing.T) {
	svc, _ := newListingService(t, 25, time.Millisecond)
	ctx := context.Background()
	id, _, err := svc.Open(ctx, "", "", "")
	require.NoError(t, err)

	view, applied, err := svc.ChangePage(ctx, id, 3)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 3, view.Page)
	assert.Len(t, view.Jobs, 5)

	view, applied, err = svc.ChangePage(ctx, id, 4)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 3, view.Page)

	view, err = svc.ChangeSort(ctx, id, domain.SortBySalary)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 25, view.Jobs[0].ID)

	view, err = svc.ApplyFilters(ctx, id, domain.Criteria{Search: "dev 1"})
	require.NoError(t, err)
	assert.Equal(t, 11, view.Total)
	assert.Equal(t, domain.SortBySalary, view.Sort)
	assert.Equal(t, 19, view.Jobs[0].ID)

	_, err = svc.View(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestListingService_DebouncedInput(t *testing.T) {
	svc, _ := newListingService(t, 25, 20*time.Millisecond)
	ctx := context.Background()
	id, _, err := svc.Open(ctx, "", "", "")
	require.NoError(t, err)

	updates, cancel, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)
	defer cancel()

	for _, q := range []string{"D", "De", "Dev 1"} {
		require.NoError(t, svc.Input(ctx, id, domain.Criteria{Search: q}))
	}

	deadline := time.After(time.Second)
	for done := false; !done; {
		select {
		case view := <-updates:
			if view.Criteria.Search == "Dev 1" {
				assert.Equal(t, 11, view.Total)
				done = true
			}
		case <-deadline:
			t.Fatal("debounced search never applied")
		}
	}

	view, err := svc.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 11, view.Total)
}

func TestListingService_SubmitSupersedesPendingInput(t *testing.T) {
	svc, _ := newListingService(t, 25, time.Hour)
	ctx := context.Background()
	id, _, err := svc.Open(ctx, "", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Input(ctx, id, domain.Criteria{Search: "Dev 2"}))
	view, err := svc.ApplyFilters(ctx, id, domain.Criteria{Search: "Dev 3"})
	require.NoError(t, err)
	assert.Equal(t, "Dev 3", view.Criteria.Search)
	assert.Equal(t, 1, view.Total)
}

func TestListingService_SweepAndRestore(t *testing.T) {
	svc, _ := newListingService(t, 25, time.Millisecond)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	id, _, err := svc.Open(ctx, "", "", "")
	require.NoError(t, err)
	_, err = svc.ChangeSort(ctx, id, domain.SortBySalary)
	require.NoError(t, err)
	_, err = svc.ApplyFilters(ctx, id, domain.Criteria{Location: "são paulo"})
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 0, svc.Sweep(ctx, 30*time.Minute))
	now = now.Add(time.Hour)
	assert.Equal(t, 1, svc.Sweep(ctx, 30*time.Minute))

	view, err := svc.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SortBySalary, view.Sort)
	assert.Equal(t, "são paulo", view.Criteria.Location)
	assert.Equal(t, 25, view.Jobs[0].ID)
}

func TestListingService_Close(t *testing.T) {
	svc, store := newListingService(t, 5, time.Millisecond)
	ctx := context.Background()
	id, _, err := svc.Open(ctx, "", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx, id))
	var prefs domain.SessionPreferences
	assert.False(t, store.Get(ctx, storage.PreferencesKey(id), &prefs))
	assert.ErrorIs(t, svc.Close(ctx, id), domain.ErrSessionNotFound)
	assert.False(t, svc.Exists(ctx, id))
}

// gatedKV holds the next preferences write while armed until release is
// closed.
type gatedKV struct {
	*memory.KVStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedKV() *gatedKV {
	return &gatedKV{
		KVStore: memory.NewKVStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedKV) Set(ctx context.Context, key string, value []byte) error {
	if strings.HasSuffix(key, "/preferences") && g.armed.CompareAndSwap(true, false) {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.KVStore.Set(ctx, key, value)
}

func TestListingService_CloseDuringDebouncedSave(t *testing.T) {
	kv := newGatedKV()
	store := storage.New(kv, discard)
	svc := NewListingService(loadedCatalog(t, 25), store, 5*time.Millisecond, discard)
	ctx := context.Background()

	id, _, err := svc.Open(ctx, "", "", "")
	require.NoError(t, err)

	kv.armed.Store(true)
	require.NoError(t, svc.Input(ctx, id, domain.Criteria{Search: "Dev 2"}))
	select {
	case <-kv.entered:
	case <-time.After(time.Second):
		t.Fatal("debounced search never saved preferences")
	}

	closed := make(chan error, 1)
	go func() { closed <- svc.Close(ctx, id) }()
	time.Sleep(20 * time.Millisecond)
	close(kv.release)
	require.NoError(t, <-closed)

	_, err = svc.View(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	var prefs domain.SessionPreferences
	assert.False(t, store.Get(ctx, storage.PreferencesKey(id), &prefs))
}

func TestListingService_CloseEndsSubscriptions(t *testing.T) {
	svc, _ := newListingService(t, 5, time.Millisecond)
	ctx := context.Background()
	id, _, err := svc.Open(ctx, "", "", "")
	require.NoError(t, err)

	updates, cancel, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, svc.Close(ctx, id))
	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}

	_, _, err = svc.Subscribe(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestListingService_Query(t *testing.T) {
	svc, _ := newListingService(t, 25, time.Millisecond)
	ctx := context.Background()

	view, err := svc.Query(ctx, domain.Criteria{}, "", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Jobs[0].ID)

	view, err = svc.Query(ctx, domain.Criteria{}, domain.SortByDate, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Page)
	assert.Equal(t, 15, view.Jobs[0].ID)

	view, err = svc.Query(ctx, domain.Criteria{Search: "Dev 2"}, "", 9)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 7, view.Total)
}

func TestApplicationService(t *testing.T) {
	kv := memory.NewKVStore()
	catalog := loadedCatalog(t, 3)
	listings := NewListingService(catalog, storage.New(kv, discard), time.Millisecond, discard)
	svc := NewApplicationService(catalog, listings, storage.NewApplicationRepository(kv), discard)
	ctx := context.Background()

	_, _, err := svc.Apply(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	id, _, err := listings.Open(ctx, "", "", "")
	require.NoError(t, err)

	_, _, err = svc.Apply(ctx, id, 42)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	record, msg, err := svc.Apply(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, "Funcionalidade de candidatura será implementada em breve. ID da vaga: 2", msg)
	assert.Equal(t, domain.ApplicationStatusPending, record.Status)
	assert.Equal(t, "Dev 2", record.JobTitle)

	_, _, err = svc.Apply(ctx, id, 3)
	require.NoError(t, err)

	records, err := svc.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].JobID)
	assert.Equal(t, 3, records[1].JobID)
}

func TestContactService_Submit(t *testing.T) {
	store := storage.New(memory.NewKVStore(), discard)
	svc := NewContactService(store, discard)
	ctx := context.Background()

	msg := svc.Submit(ctx, domain.ContactMessage{Name: "Ana", Email: "ana@example.com", Message: "Olá"})
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	var stored domain.ContactMessage
	require.True(t, store.Get(ctx, storage.ContactKey(msg.ID), &stored))
	assert.Equal(t, "Ana", stored.Name)
}
