package crawl_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pressrun/pressrun/cmd/crawl"
	"github.com/pressrun/pressrun/internal/domain"
)

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	stats := &domain.RunStats{
		RunID:       "run-123",
		Status:      domain.RunCompleted,
		PagesWalked: 2,
		StopReason:  domain.StopWindowExceeded,
		Discovered:  12,
		Uploaded:    10,
		Elapsed:     "1.2s",
	}

	var buf bytes.Buffer
	crawl.RenderSummary(&buf, stats)

	out := buf.String()
	assert.Contains(t, out, "run-123")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "window_exceeded")
	assert.Contains(t, out, "Uploaded")
}

func TestRenderSummary_FailuresTable(t *testing.T) {
	t.Parallel()

	stats := &domain.RunStats{
		RunID:  "run-456",
		Status: domain.RunCompletedWithFailures,
		Failed: 1,
		Failures: []domain.Failure{
			{Stage: "extract", URL: "https://news.example.com/x", Error: "connection reset"},
		},
	}

	var buf bytes.Buffer
	crawl.RenderSummary(&buf, stats)

	out := buf.String()
	assert.Contains(t, out, "Failures")
	assert.Contains(t, out, "https://news.example.com/x")
	assert.Contains(t, out, "connection reset")
}
