package pipeline

import (
	"time"

	"github.com/pressrun/pressrun/internal/domain"
)

// AdmissionFilter decides whether an extracted record is eligible for
// upload. Rejection is an expected filtering outcome, not a failure.
type AdmissionFilter struct {
	referenceTime time.Time
	window        time.Duration
}

// NewAdmissionFilter creates a filter anchored at the run's reference time.
func NewAdmissionFilter(referenceTime time.Time, window time.Duration) *AdmissionFilter {
	return &AdmissionFilter{referenceTime: referenceTime, window: window}
}

// Admit reports whether the record's publish time lies within the recency
// window and its content is non-blank.
func (f *AdmissionFilter) Admit(record *domain.ArticleRecord) bool {
	if !record.HasContent() {
		return false
	}

	cutoff := f.referenceTime.Add(-f.window)
	return !record.PublishedAt.Before(cutoff)
}
