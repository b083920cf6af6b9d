package domain

import (
	"errors"
	"time"
)

// ErrInvalidConfig marks a configuration error. It is fatal: the run aborts
// before any fetch is issued.
var ErrInvalidConfig = errors.New("invalid configuration")

// RunStatus is the terminal state of one pipeline run.
type RunStatus string

const (
	// RunCompleted means the walk finished or early-stopped with no failures.
	RunCompleted RunStatus = "completed"
	// RunCompletedWithFailures means the run finished but some items or
	// batches failed.
	RunCompletedWithFailures RunStatus = "completed_with_failures"
	// RunAborted means the run could not start (config or store error).
	RunAborted RunStatus = "aborted"
)

// StopReason records why pagination stopped early, if it did.
type StopReason string

const (
	// StopNone means the walk ran to its page limit.
	StopNone StopReason = ""
	// StopWindowExceeded means a page's oldest item fell outside the window.
	StopWindowExceeded StopReason = "window_exceeded"
	// StopMaxArticles means the article cap was reached.
	StopMaxArticles StopReason = "max_articles"
	// StopEmptyPage means a page yielded no summaries (end of source).
	StopEmptyPage StopReason = "empty_page"
	// StopFetchFailed means a page fetch exhausted its retries.
	StopFetchFailed StopReason = "fetch_failed"
	// StopCancelled means the run context was cancelled mid-walk.
	StopCancelled StopReason = "cancelled"
)

// Failure describes one item- or batch-scoped failure within a run.
type Failure struct {
	Stage string `json:"stage"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error"`
}

// RunStats accumulates counts across pipeline stages during one run.
// It is owned by the orchestrating goroutine: extraction workers report
// outcomes back to the orchestrator rather than touching stats directly.
type RunStats struct {
	RunID       string    `json:"run_id"`
	ReferenceAt time.Time `json:"reference_at"`
	StartedAt   time.Time `json:"started_at"`

	Discovered   int `json:"discovered"`
	Extracted    int `json:"extracted"`
	Admitted     int `json:"admitted"`
	Rejected     int `json:"rejected"`
	Deduplicated int `json:"deduplicated"`
	Uploaded     int `json:"uploaded"`
	Failed       int `json:"failed"`

	PagesWalked int        `json:"pages_walked"`
	StopReason  StopReason `json:"stop_reason,omitempty"`
	Status      RunStatus  `json:"status"`
	Elapsed     string     `json:"elapsed"`

	Failures []Failure `json:"failures,omitempty"`
}

// AddFailure records a failure and bumps the failed counter.
func (s *RunStats) AddFailure(stage, url string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{Stage: stage, URL: url, Error: err.Error()})
}

// Finalize stamps elapsed time and derives the terminal status.
func (s *RunStats) Finalize() {
	s.Elapsed = time.Since(s.StartedAt).Round(time.Millisecond).String()
	if s.Failed > 0 {
		s.Status = RunCompletedWithFailures
	} else {
		s.Status = RunCompleted
	}
}
