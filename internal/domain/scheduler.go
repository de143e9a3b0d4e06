package domain

import "context"

// Scheduler runs named background tasks on cron schedules.
type Scheduler interface {
	Start(ctx context.Context) error

	AddTask(name, spec string, fn func(ctx context.Context) error) error
	RemoveTask(name string) error
}
