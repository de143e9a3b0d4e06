package render

import (
	"fmt"

	"job-board/internal/domain"
)

// PaginationItem is a button or a gap of the pagination bar.
type PaginationItem struct {
	Kind     string `json:"kind"` // prev, page, dots, next
	Label    string `json:"label"`
	Page     int    `json:"page,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// State is a static block shown instead of a list: no results or a load error.
type State struct {
	Icon    string `json:"icon"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// ListingPage is the render model of the jobs page.
type ListingPage struct {
	ResultsLabel string           `json:"results_label"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"total_pages"`
	Total        int              `json:"total"`
	Sort         domain.SortMode  `json:"sort"`
	Criteria     domain.Criteria  `json:"criteria"`
	Jobs         []JobCard        `json:"jobs"`
	Pagination   []PaginationItem `json:"pagination"`
	Empty        *State           `json:"empty,omitempty"`
	Error        *State           `json:"error,omitempty"`
}

// Listing renders a controller snapshot.
func Listing(v domain.ListingView) ListingPage {
	page := ListingPage{
		ResultsLabel: ResultsLabel(v.Total),
		Page:         v.Page,
		TotalPages:   v.TotalPages,
		Total:        v.Total,
		Sort:         v.Sort,
		Criteria:     v.Criteria,
		Jobs:         JobCards(v.Jobs),
		Pagination:   Pagination(v.Page, v.TotalPages),
	}
	if v.Total == 0 {
		page.Empty = &State{
			Icon:    "fa-search",
			Title:   "Nenhuma vaga encontrada",
			Message: "Tente ajustar os filtros de busca ou procure por outros termos.",
		}
	}
	return page
}

// LoadError renders the static error state shown when the feed failed.
func LoadError() ListingPage {
	return ListingPage{
		Jobs:       []JobCard{},
		Pagination: []PaginationItem{},
		Error: &State{
			Icon:    "fa-exclamation-triangle",
			Title:   "Erro ao carregar vagas",
			Message: "Erro ao carregar vagas. Tente novamente mais tarde.",
			Action:  "Tentar Novamente",
		},
	}
}

// ResultsLabel is the "N vagas encontradas" counter.
func ResultsLabel(count int) string {
	switch count {
	case 0:
		return "Nenhuma vaga encontrada"
	case 1:
		return "1 vaga encontrada"
	}
	return fmt.Sprintf("%d vagas encontradas", count)
}

// Pagination lays out the bar for page out of total: previous, a window of
// two pages around the current one, the first and last pages behind "..."
// gaps, and next. A single page needs no bar.
func Pagination(page, total int) []PaginationItem {
	items := []PaginationItem{}
	if total <= 1 {
		return items
	}

	items = append(items, PaginationItem{Kind: "prev", Label: "Anterior", Page: page - 1, Disabled: page == 1})

	start := max(1, page-2)
	end := min(total, page+2)

	if start > 1 {
		items = append(items, pageItem(1, page))
		if start > 2 {
			items = append(items, dots())
		}
	}
	for i := start; i <= end; i++ {
		items = append(items, pageItem(i, page))
	}
	if end < total {
		if end < total-1 {
			items = append(items, dots())
		}
		items = append(items, pageItem(total, page))
	}

	items = append(items, PaginationItem{Kind: "next", Label: "Próxima", Page: page + 1, Disabled: page == total})
	return items
}

func pageItem(n, current int) PaginationItem {
	return PaginationItem{Kind: "page", Label: fmt.Sprint(n), Page: n, Active: n == current}
}

func dots() PaginationItem {
	return PaginationItem{Kind: "dots", Label: "..."}
}

// HomePage is the render model of the landing page.
type HomePage struct {
	Jobs           []JobCard     `json:"jobs"`
	JobsState      *State        `json:"jobs_state,omitempty"`
	Companies      []CompanyCard `json:"companies"`
	CompaniesState *State        `json:"companies_state,omitempty"`
}

// Home renders the featured grids. A nil error with an empty slice shows
// the "nothing yet" state, a non-nil error the load error state.
func Home(jobs []domain.Job, jobsErr error, companies []domain.Company, companiesErr error) HomePage {
	home := HomePage{Jobs: FeaturedJobCards(jobs), Companies: CompanyCards(companies)}

	switch {
	case jobsErr != nil:
		home.JobsState = &State{Icon: "fa-exclamation-triangle", Title: "Erro ao carregar vagas", Message: "Erro ao carregar vagas. Tente novamente mais tarde."}
	case len(jobs) == 0:
		home.JobsState = &State{Icon: "fa-briefcase", Title: "Nenhuma vaga disponível", Message: "Novas oportunidades serão publicadas em breve."}
	}

	switch {
	case companiesErr != nil:
		home.CompaniesState = &State{Icon: "fa-exclamation-triangle", Title: "Erro ao carregar empresas", Message: "Erro ao carregar empresas. Tente novamente mais tarde."}
	case len(companies) == 0:
		home.CompaniesState = &State{Icon: "fa-building", Title: "Nenhuma empresa encontrada", Message: "Novas empresas parceiras serão adicionadas em breve."}
	}
	return home
}
