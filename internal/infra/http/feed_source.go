package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"job-board/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxFeedSize caps a feed document; listings are a few dozen records.
const maxFeedSize = 8 << 20

// RetryPolicy controls re-fetching after retriable failures. The zero value
// fetches once.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

type httpFeedSource struct {
	url    string
	client *http.Client
	retry  RetryPolicy
	tracer trace.Tracer
}

// NewHttpFeedSource fetches a JSON feed document from url.
func NewHttpFeedSource(url string, timeout time.Duration, retry RetryPolicy) domain.FeedSource {
	return &httpFeedSource{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		retry:  retry,
		tracer: otel.Tracer("job-board-feed-http"),
	}
}

func (s *httpFeedSource) Name() string { return s.url }

// Fetch downloads the document, retrying timeouts and 5xx answers.
func (s *httpFeedSource) Fetch(ctx context.Context) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "feed.http.Fetch", trace.WithAttributes(attribute.String("feed.url", s.url)))
	defer span.End()

	var lastErr error
	for i := 0; i <= s.retry.MaxRetries; i++ {
		body, err := s.doFetch(ctx)
		if err == nil {
			span.SetAttributes(attribute.Int("feed.bytes", len(body)), attribute.Int("feed.attempts", i+1))
			return body, nil
		}
		lastErr = err

		if !retriable(err) || i == s.retry.MaxRetries {
			break
		}
		if err := sleepCtx(ctx, s.retry.Backoff); err != nil {
			lastErr = err
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "feed fetch failed")
	return nil, fmt.Errorf("%w: %s: %w", domain.ErrFeedUnavailable, s.url, lastErr)
}

// statusError is a non-2xx answer from the feed server.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return "feed returned non-success status: " + e.status
}

// retriable reports whether another attempt may succeed: timeouts and
// server errors.
func retriable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var se *statusError
	return errors.As(err, &se) && se.code >= 500
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *httpFeedSource) doFetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
