package pipeline

import (
	"context"
	"fmt"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/logger"
	"github.com/pressrun/pressrun/internal/retry"
)

// Store is the persistent article store the pipeline uploads into. The
// store enforces a uniqueness constraint on URL; UpsertBatch must be
// idempotent under retries.
type Store interface {
	UpsertBatch(ctx context.Context, records []domain.ArticleRecord) (domain.UpsertResult, error)
	ListKnownURLs(ctx context.Context, limit int) ([]string, error)
}

// SinkStats summarizes an upload sink's activity for one run.
type SinkStats struct {
	Uploaded      int
	Duplicates    int
	FailedRecords int
	Failures      []domain.Failure
}

// UploadSink batches admitted, deduplicated records and upserts them into
// the store. A batch that exhausts its retries is recorded as failed and
// the run continues with the next batch.
type UploadSink struct {
	store     Store
	log       logger.Interface
	policy    retry.Config
	batchSize int

	pending []domain.ArticleRecord
	stats   SinkStats
}

// NewUploadSink creates a sink flushing every batchSize records.
func NewUploadSink(store Store, batchSize int, policy retry.Config, log logger.Interface) *UploadSink {
	if batchSize < 1 {
		batchSize = 1
	}
	return &UploadSink{
		store:     store,
		log:       log,
		policy:    policy,
		batchSize: batchSize,
	}
}

// Add queues a record, flushing when the batch is full.
func (s *UploadSink) Add(ctx context.Context, record domain.ArticleRecord) {
	s.pending = append(s.pending, record)
	if len(s.pending) >= s.batchSize {
		s.flushPending(ctx)
	}
}

// Flush uploads any remaining queued records and returns the sink's totals.
func (s *UploadSink) Flush(ctx context.Context) SinkStats {
	if len(s.pending) > 0 {
		s.flushPending(ctx)
	}
	return s.stats
}

// flushPending uploads the current batch with retry. On exhaustion the
// whole batch is recorded as failed; it never aborts the run.
func (s *UploadSink) flushPending(ctx context.Context) {
	batch := s.pending
	s.pending = nil

	var result domain.UpsertResult
	err := retry.Do(ctx, s.policy, func() error {
		var upsertErr error
		result, upsertErr = s.store.UpsertBatch(ctx, batch)
		if upsertErr != nil {
			s.log.Warn("batch upload attempt failed",
				"batch_size", len(batch),
				"error", upsertErr.Error(),
			)
		}
		return upsertErr
	})
	if err != nil {
		s.log.Error("batch upload failed after retries",
			"batch_size", len(batch),
			"error", err.Error(),
		)
		s.stats.FailedRecords += len(batch)
		s.stats.Failures = append(s.stats.Failures, domain.Failure{
			Stage: "upload",
			Error: fmt.Sprintf("batch of %d: %v", len(batch), err),
		})
		return
	}

	// Records the backstop constraint rejected were already stored by an
	// earlier run; they count as duplicates, not errors.
	s.stats.Uploaded += result.Inserted
	s.stats.Duplicates += result.Duplicates

	s.log.Info("batch uploaded",
		"batch_size", len(batch),
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
	)
}
