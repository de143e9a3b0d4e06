package listing

import (
	"sort"
	"unicode/utf16"

	"job-board/internal/domain"
)

// Sort reorders jobs in place. Ties keep their relative order and an
// unknown mode leaves the slice untouched.
func Sort(jobs []domain.Job, mode domain.SortMode) {
	switch mode {
	case domain.SortByDate:
		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].PostedDays < jobs[j].PostedDays
		})
	case domain.SortBySalary:
		keyed := make([]salaryKeyed, len(jobs))
		for i, job := range jobs {
			keyed[i] = salaryKeyed{job: job, key: ExtractSalary(job.Salary)}
		}
		sort.SliceStable(keyed, func(i, j int) bool {
			return keyed[i].key > keyed[j].key
		})
		for i := range keyed {
			jobs[i] = keyed[i].job
		}
	case domain.SortByRelevance:
		// Title length stands in for relevance until real scoring exists.
		sort.SliceStable(jobs, func(i, j int) bool {
			return TitleLength(jobs[i].Title) < TitleLength(jobs[j].Title)
		})
	}
}

type salaryKeyed struct {
	job domain.Job
	key float64
}

// TitleLength counts UTF-16 code units, the unit browsers report.
func TitleLength(title string) int {
	return len(utf16.Encode([]rune(title)))
}
