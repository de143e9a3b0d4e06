// Package storage layers JSON values over a domain.KeyValueStore.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"job-board/internal/domain"
)

// Storage mirrors the page-side storage helper: values are JSON encoded,
// and failures are logged and swallowed so callers treat storage as best
// effort.
type Storage struct {
	kv     domain.KeyValueStore
	logger *slog.Logger
}

func New(kv domain.KeyValueStore, logger *slog.Logger) *Storage {
	return &Storage{kv: kv, logger: logger.With("component", "storage")}
}

// Set stores value under key.
func (s *Storage) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to encode value", "key", key, "error", err)
		return
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		s.logger.Error("failed to save value", "key", key, "error", err)
	}
}

// Get decodes the value of key into dst and reports whether it was found.
func (s *Storage) Get(ctx context.Context, key string, dst any) bool {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		s.logger.Error("failed to read value", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Error("failed to decode value", "key", key, "error", err)
		return false
	}
	return true
}

// Remove deletes key.
func (s *Storage) Remove(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error("failed to remove value", "key", key, "error", err)
	}
}

// PreferencesKey is where a session's criteria and sort are kept.
func PreferencesKey(sessionID string) string {
	return path.Join("sessions", sessionID, "preferences")
}

// ContactKey is where a contact form submission is kept.
func ContactKey(id string) string {
	return path.Join("contact", id)
}

func applicationsPrefix(sessionID string) string {
	return path.Join("applications", sessionID) + "/"
}

type applicationRepository struct {
	kv domain.KeyValueStore
}

// NewApplicationRepository stores application records under
// applications/<session>/<created-at>-<id>, so listing a session prefix
// yields them oldest first.
func NewApplicationRepository(kv domain.KeyValueStore) domain.ApplicationRepository {
	return &applicationRepository{kv: kv}
}

func (r *applicationRepository) Save(ctx context.Context, record *domain.ApplicationRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal application record %s: %w", record.ID, err)
	}
	key := applicationsPrefix(record.SessionID) + fmt.Sprintf("%020d-%s", record.CreatedAt.UnixNano(), record.ID)
	if err := r.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save application record %s: %w", record.ID, err)
	}
	return nil
}

func (r *applicationRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.ApplicationRecord, error) {
	values, err := r.kv.List(ctx, applicationsPrefix(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications of session %s: %w", sessionID, err)
	}
	records := make([]*domain.ApplicationRecord, 0, len(values))
	for _, v := range values {
		var rec domain.ApplicationRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}
