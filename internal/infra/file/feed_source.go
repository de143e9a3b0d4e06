// Package file serves feed documents from the local filesystem.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"job-board/internal/debounce"
	"job-board/internal/domain"

	"github.com/fsnotify/fsnotify"
)

// FeedSource reads a feed document from disk.
type FeedSource struct {
	path   string
	logger *slog.Logger
}

// NewFeedSource returns a source reading path on every Fetch.
func NewFeedSource(path string, logger *slog.Logger) *FeedSource {
	return &FeedSource{
		path:   path,
		logger: logger.With("component", "file-feed", "path", path),
	}
}

func (s *FeedSource) Name() string { return s.path }

func (s *FeedSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFeedUnavailable, err)
	}
	return data, nil
}

// Watch calls onChange after the file has been written, created or renamed
// into place, once writes have settled for quiet. It blocks until ctx is done.
func (s *FeedSource) Watch(ctx context.Context, quiet time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files by rename, so watch the directory.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	reload := debounce.New(quiet, onChange)
	defer reload.Stop()

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				s.logger.Debug("feed file changed", "op", event.Op.String())
				reload.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("feed watcher error", "error", err)
		}
	}
}
