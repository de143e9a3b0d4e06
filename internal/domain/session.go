package domain

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired listing sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionPreferences is the persisted part of a listing session.
type SessionPreferences struct {
	Criteria  Criteria  `json:"criteria"`
	Sort      SortMode  `json:"sort"`
	Filtered  bool      `json:"filtered"`
	Sorted    bool      `json:"sorted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactMessage is a validated submission of the contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
