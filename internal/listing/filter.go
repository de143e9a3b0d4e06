// Package listing implements the filter, sort and paginate pipeline behind
// the job listing page. Everything here is pure apart from Controller, which
// owns the view state of a single listing.
package listing

import (
	"strings"

	"job-board/internal/domain"
)

// matcher holds lower-cased criteria so a filter pass folds them once.
type matcher struct {
	search, location, category, contract, experience string
}

func newMatcher(c domain.Criteria) matcher {
	return matcher{
		search:     strings.ToLower(c.Search),
		location:   strings.ToLower(c.Location),
		category:   strings.ToLower(c.Category),
		contract:   strings.ToLower(c.Contract),
		experience: strings.ToLower(c.Experience),
	}
}

func (m matcher) match(job domain.Job) bool {
	return m.matchSearch(job) &&
		(m.location == "" || strings.Contains(strings.ToLower(job.Location), m.location)) &&
		matchExact(job.Category, m.category) &&
		matchExact(job.Type, m.contract) &&
		matchExact(job.Level, m.experience)
}

func (m matcher) matchSearch(job domain.Job) bool {
	if m.search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(job.Title), m.search) ||
		strings.Contains(strings.ToLower(job.Company), m.search) ||
		strings.Contains(strings.ToLower(job.Description), m.search) {
		return true
	}
	for _, skill := range job.Skills {
		if strings.Contains(strings.ToLower(skill), m.search) {
			return true
		}
	}
	return false
}

func matchExact(field, want string) bool {
	return want == "" || strings.ToLower(field) == want
}

// Filter returns the jobs matching every criterion, in input order.
func Filter(jobs []domain.Job, c domain.Criteria) []domain.Job {
	m := newMatcher(c)
	out := make([]domain.Job, 0, len(jobs))
	for _, job := range jobs {
		if m.match(job) {
			out = append(out, job)
		}
	}
	return out
}

// Matches reports whether a single job passes c.
func Matches(job domain.Job, c domain.Criteria) bool {
	return newMatcher(c).match(job)
}
