package listing

import "job-board/internal/domain"

// TotalPages is ceil(count / PageSize), and 0 for an empty collection.
func TotalPages(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + domain.PageSize - 1) / domain.PageSize
}

// Paginate returns the page window [(page-1)*PageSize, page*PageSize)
// clipped to the collection. Out of range pages yield an empty window.
func Paginate(jobs []domain.Job, page int) []domain.Job {
	if page < 1 {
		return []domain.Job{}
	}
	start := (page - 1) * domain.PageSize
	if start >= len(jobs) {
		return []domain.Job{}
	}
	end := min(start+domain.PageSize, len(jobs))
	out := make([]domain.Job, end-start)
	copy(out, jobs[start:end])
	return out
}
