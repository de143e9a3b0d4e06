// internal/domain/application.go
package domain

import (
	"context"
	"fmt"
	"time"
)

// ApplicationStatus tracks an application intent. Only "pending" exists
// until the application flow itself is built.
type ApplicationStatus string

const (
	ApplicationStatusPending ApplicationStatus = "pending"
)

// ApplicationRecord is one "apply to job" click recorded for a session.
type ApplicationRecord struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	JobID     int               `json:"job_id"`
	JobTitle  string            `json:"job_title"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// Validate checks if the application record is valid.
func (r *ApplicationRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("application record ID cannot be empty")
	}
	if r.SessionID == "" {
		return fmt.Errorf("application record session ID cannot be empty")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("application record creation time cannot be zero")
	}
	if r.Status == "" {
		return fmt.Errorf("application record status cannot be empty")
	}
	return nil
}

// ApplicationRepository persists application intents.
type ApplicationRepository interface {
	Save(ctx context.Context, record *ApplicationRecord) error
	// ListBySession returns the records of a session, oldest first.
	ListBySession(ctx context.Context, sessionID string) ([]*ApplicationRecord, error)
}
