package domain

import (
	"context"
	"errors"
)

var (
	// ErrJobNotFound is returned when no job carries the requested id.
	ErrJobNotFound = errors.New("job not found")
	// ErrCompanyNotFound is returned when no company carries the requested name.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrFeedUnavailable marks a load failure: the feed could not be fetched or parsed.
	ErrFeedUnavailable = errors.New("feed unavailable")
)

// FeedSource returns the raw bytes of a JSON feed document.
type FeedSource interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Name identifies the source in logs and metrics.
	Name() string
}

// Catalog is the read side of the loaded feeds.
type Catalog interface {
	Jobs() []Job
	Companies() []Company
	Job(id int) (Job, error)
	Company(name string) (Company, error)
}
