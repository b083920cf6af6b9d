package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressrun/pressrun/internal/fetcher"
	"github.com/pressrun/pressrun/internal/logger"
)

func testConfig() fetcher.Config {
	return fetcher.Config{
		RequestTimeout: 5 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(), logger.NewNoOp())

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(body))
}

func TestFetch_RetriesTransientServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(), logger.NewNoOp())

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_NotFoundFailsWithoutRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(), logger.NewNoOp())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 1, fetchErr.Attempts)

	var statusErr *fetcher.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ExhaustsRetriesOnPersistent5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(), logger.NewNoOp())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_MalformedURLNotRetried(t *testing.T) {
	t.Parallel()

	f := fetcher.New(testConfig(), logger.NewNoOp())

	_, err := f.Fetch(context.Background(), "http://bad url with spaces")
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 1, fetchErr.Attempts)
	assert.ErrorIs(t, err, fetcher.ErrInvalidRequest)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &fetcher.HTTPStatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &fetcher.HTTPStatusError{StatusCode: http.StatusInternalServerError}, true},
		{"not found", &fetcher.HTTPStatusError{StatusCode: http.StatusNotFound}, false},
		{"forbidden", &fetcher.HTTPStatusError{StatusCode: http.StatusForbidden}, false},
		{"network", errors.New("connection reset by peer"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fetcher.IsTransient(tt.err))
		})
	}
}
