package domain

import "fmt"

// SortMode selects the ordering of the filtered view.
type SortMode string

const (
	SortByDate      SortMode = "date"
	SortBySalary    SortMode = "salary"
	SortByRelevance SortMode = "relevance"
)

// DefaultSortMode is used when a client never picked one.
const DefaultSortMode = SortByDate

// PageSize is the fixed number of jobs per page.
const PageSize = 10

// ParseSortMode converts a raw string to a SortMode. An empty string yields
// the default mode.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(s); m {
	case "":
		return DefaultSortMode, nil
	case SortByDate, SortBySalary, SortByRelevance:
		return m, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Criteria is a snapshot of the five filter inputs. An empty field matches
// every job.
type Criteria struct {
	Search     string `json:"search"`
	Location   string `json:"location"`
	Category   string `json:"category"`
	Contract   string `json:"contract"`
	Experience string `json:"experience"`
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// CriteriaFromQuery seeds criteria from the q, location and company
// parameters a listing page is opened with. company takes the place of q.
// The second result reports whether any of them was present.
func CriteriaFromQuery(q, location, company string) (Criteria, bool) {
	c := Criteria{Search: q, Location: location}
	if company != "" {
		c.Search = company
	}
	return c, q != "" || location != "" || company != ""
}

// ListingView is what a listing controller exposes to renderers.
type ListingView struct {
	Criteria   Criteria `json:"criteria"`
	Sort       SortMode `json:"sort"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	Total      int      `json:"total"`
	Jobs       []Job    `json:"jobs"`
}
