package pipeline_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/logger"
	"github.com/pressrun/pressrun/internal/pipeline"
	"github.com/pressrun/pressrun/internal/retry"
)

func sinkPolicy() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func uploadRecord(i int) domain.ArticleRecord {
	return domain.NewArticleRecord(
		summaryAt(fmt.Sprintf("https://news.example.com/%d", i), time.Now().UTC()),
		"article body content",
	)
}

func TestSink_BatchesBySize(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	sink := pipeline.NewUploadSink(store, 2, sinkPolicy(), logger.NewNoOp())

	ctx := context.Background()
	for i := range 5 {
		sink.Add(ctx, uploadRecord(i))
	}
	stats := sink.Flush(ctx)

	assert.Equal(t, 5, stats.Uploaded)
	require.Len(t, store.batches, 3, "two full batches plus the remainder")
	assert.Len(t, store.batches[0], 2)
	assert.Len(t, store.batches[2], 1)
}

func TestSink_RetryThenSuccessCountsInserted(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failures = 2 // fail twice, succeed on the third attempt

	sink := pipeline.NewUploadSink(store, 10, sinkPolicy(), logger.NewNoOp())

	ctx := context.Background()
	sink.Add(ctx, uploadRecord(1))
	stats := sink.Flush(ctx)

	assert.Equal(t, 1, stats.Uploaded)
	assert.Zero(t, stats.FailedRecords)
	assert.Empty(t, stats.Failures)
}

func TestSink_ExhaustedBatchDoesNotBlockNext(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failures = 3 // first batch exhausts all three attempts

	sink := pipeline.NewUploadSink(store, 2, sinkPolicy(), logger.NewNoOp())

	ctx := context.Background()
	sink.Add(ctx, uploadRecord(1))
	sink.Add(ctx, uploadRecord(2)) // flushes and fails
	sink.Add(ctx, uploadRecord(3))
	sink.Add(ctx, uploadRecord(4)) // flushes and succeeds
	stats := sink.Flush(ctx)

	assert.Equal(t, 2, stats.Uploaded)
	assert.Equal(t, 2, stats.FailedRecords)
	require.Len(t, stats.Failures, 1)
	assert.Equal(t, "upload", stats.Failures[0].Stage)
}

func TestSink_ConstraintRejectionsCountAsDuplicates(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	ctx := context.Background()

	// Pre-existing row with the same URL as record 1.
	_, err := store.UpsertBatch(ctx, []domain.ArticleRecord{uploadRecord(1)})
	require.NoError(t, err)

	sink := pipeline.NewUploadSink(store, 10, sinkPolicy(), logger.NewNoOp())
	sink.Add(ctx, uploadRecord(1))
	sink.Add(ctx, uploadRecord(2))
	stats := sink.Flush(ctx)

	assert.Equal(t, 1, stats.Uploaded)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Zero(t, stats.FailedRecords)
}

func TestSink_FlushWithNothingPending(t *testing.T) {
	t.Parallel()

	sink := pipeline.NewUploadSink(newFakeStore(), 10, sinkPolicy(), logger.NewNoOp())
	stats := sink.Flush(context.Background())

	assert.Zero(t, stats.Uploaded)
	assert.Empty(t, stats.Failures)
}
