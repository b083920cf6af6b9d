// Package fetcher performs HTTP page retrieval with retry and backoff.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pressrun/pressrun/internal/logger"
	"github.com/pressrun/pressrun/internal/retry"
)

// DefaultUserAgent is a browser-like identity header. Some news sources
// serve reduced markup to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// FetchError reports a failed fetch, including how many attempts were made.
// Callers decide whether to skip the item or stop the walk.
type FetchError struct {
	URL      string
	Attempts int
	Cause    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ErrInvalidRequest marks a request that could not be constructed, usually
// a malformed URL. Never retried.
var ErrInvalidRequest = errors.New("invalid request")

// HTTPStatusError marks a non-2xx HTTP response.
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// Config configures the fetcher.
type Config struct {
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// DefaultConfig returns production-safe fetcher defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:      DefaultUserAgent,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Fetcher retrieves pages over HTTP. Transient failures (timeouts, 5xx,
// rate limits, connection resets) are retried with exponential backoff;
// other 4xx responses and malformed URLs fail immediately.
type Fetcher struct {
	client    *http.Client
	log       logger.Interface
	userAgent string
	policy    retry.Config
}

// New creates a fetcher with the given configuration.
func New(cfg Config, log logger.Interface) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	policy := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		policy.MaxAttempts = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		policy.InitialDelay = cfg.RetryDelay
	}
	policy.IsRetryable = IsTransient

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.RequestTimeout},
		log:       log,
		userAgent: cfg.UserAgent,
		policy:    policy,
	}
}

// Fetch retrieves the page at url and returns its body. On failure it
// returns a *FetchError carrying the attempt count.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	attempts := 0

	err := retry.Do(ctx, f.policy, func() error {
		attempts++
		raw, fetchErr := f.fetchOnce(ctx, url)
		if fetchErr != nil {
			f.log.Debug("fetch attempt failed",
				"url", url,
				"attempt", attempts,
				"error", fetchErr.Error(),
			)
			return fetchErr
		}
		body = raw
		return nil
	})
	if err != nil {
		return nil, &FetchError{URL: url, Attempts: attempts, Cause: err}
	}

	return body, nil
}

// fetchOnce performs a single HTTP GET.
func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, reqErr)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, fmt.Errorf("read response body: %w", readErr)
	}

	return body, nil
}

// IsTransient classifies an error as retryable. Network errors, timeouts,
// 429 and 5xx responses are transient; other HTTP statuses are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidRequest) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}

	// Request construction errors (malformed URLs) are permanent.
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return IsTransient(fetchErr.Cause)
	}

	// Everything else at this point came from the transport layer.
	return true
}
