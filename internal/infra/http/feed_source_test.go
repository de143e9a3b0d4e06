package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board/internal/domain"
)

func TestHttpFeedSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`[{"id":1,"title":"Dev"}]`))
	}))
	defer srv.Close()

	src := NewHttpFeedSource(srv.URL, time.Second, RetryPolicy{})
	body, err := src.Fetch(context.Background())

	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"Dev"}]`, string(body))
	assert.Equal(t, srv.URL, src.Name())
}

func TestHttpFeedSource_NonSuccessIsLoadFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHttpFeedSource(srv.URL, time.Second, RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond})
	_, err := src.Fetch(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestHttpFeedSource_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHttpFeedSource(srv.URL, time.Second, RetryPolicy{}).Fetch(context.Background())

	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHttpFeedSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	src := NewHttpFeedSource(srv.URL, time.Second, RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond})
	body, err := src.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHttpFeedSource_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHttpFeedSource(url, time.Second, RetryPolicy{}).Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}

func TestRetriable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &statusError{code: http.StatusBadGateway, status: "502 Bad Gateway"}, true},
		{"wrapped server error", fmt.Errorf("attempt: %w", &statusError{code: 503, status: "503"}), true},
		{"client error", &statusError{code: http.StatusNotFound, status: "404 Not Found"}, false},
		{"message mentioning 5xx", errors.New("upstream said 5xx"), false},
		{"timeout", context.DeadlineExceeded, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, retriable(tc.err))
		})
	}
}

func TestHttpFeedSource_StatusErrorKeepsCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHttpFeedSource(srv.URL, time.Second, RetryPolicy{}).Fetch(context.Background())

	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.code)
}
