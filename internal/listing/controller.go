package listing

import "job-board/internal/domain"

// Controller owns the view state of one listing: the immutable job
// collection, the filtered and sorted view, the criteria and the page.
// It is not safe for concurrent use; callers serialise access.
type Controller struct {
	all      []domain.Job
	view     []domain.Job
	criteria domain.Criteria
	sort     domain.SortMode
	page     int
}

// NewController starts with the whole collection in feed order on page 1.
// jobs is copied and never modified afterwards.
func NewController(jobs []domain.Job) *Controller {
	all := make([]domain.Job, len(jobs))
	copy(all, jobs)
	view := make([]domain.Job, len(all))
	copy(view, all)
	return &Controller{
		all:  all,
		view: view,
		sort: domain.DefaultSortMode,
		page: 1,
	}
}

// ApplyFilters recomputes the view from the full collection, sorts it with
// the current mode and resets the page.
func (c *Controller) ApplyFilters(criteria domain.Criteria) {
	c.criteria = criteria
	c.view = Filter(c.all, criteria)
	Sort(c.view, c.sort)
	c.page = 1
}

// ChangeSort reorders the current view and resets the page.
func (c *Controller) ChangeSort(mode domain.SortMode) {
	c.sort = mode
	Sort(c.view, mode)
	c.page = 1
}

// ChangePage moves to page when it lies in [1, TotalPages]. Otherwise the
// request is ignored and false is returned.
func (c *Controller) ChangePage(page int) bool {
	if page < 1 || page > c.TotalPages() {
		return false
	}
	c.page = page
	return true
}

func (c *Controller) Criteria() domain.Criteria { return c.criteria }
func (c *Controller) SortMode() domain.SortMode { return c.sort }
func (c *Controller) Page() int                 { return c.page }
func (c *Controller) Count() int                { return len(c.view) }
func (c *Controller) TotalPages() int           { return TotalPages(len(c.view)) }

// PageJobs returns the window of the current page.
func (c *Controller) PageJobs() []domain.Job {
	return Paginate(c.view, c.page)
}

// View snapshots the state for renderers.
func (c *Controller) View() domain.ListingView {
	return domain.ListingView{
		Criteria:   c.criteria,
		Sort:       c.sort,
		Page:       c.page,
		PageSize:   domain.PageSize,
		TotalPages: c.TotalPages(),
		Total:      len(c.view),
		Jobs:       c.PageJobs(),
	}
}
