package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/logger"
	"github.com/pressrun/pressrun/internal/parser"
	"github.com/pressrun/pressrun/internal/retry"
)

// RunConfig configures one pipeline run. Constructed once per run and
// immutable thereafter.
type RunConfig struct {
	Source                string
	PageLimit             int
	MaxArticles           int
	RecencyWindowHours    int
	ExtractionConcurrency int
	UploadBatchSize       int
	PageDelay             time.Duration
	KnownURLSeedLimit     int
}

// Validate checks the configuration before any fetch happens.
func (c RunConfig) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("%w: source url is required", domain.ErrInvalidConfig)
	}
	if c.PageLimit < 1 {
		return fmt.Errorf("%w: page limit must be at least 1", domain.ErrInvalidConfig)
	}
	if c.RecencyWindowHours < 1 {
		return fmt.Errorf("%w: recency window must be at least 1 hour", domain.ErrInvalidConfig)
	}
	if c.ExtractionConcurrency < 1 {
		return fmt.Errorf("%w: extraction concurrency must be at least 1", domain.ErrInvalidConfig)
	}
	if c.UploadBatchSize < 1 {
		return fmt.Errorf("%w: upload batch size must be at least 1", domain.ErrInvalidConfig)
	}
	return nil
}

// Window returns the recency window as a duration.
func (c RunConfig) Window() time.Duration {
	return time.Duration(c.RecencyWindowHours) * time.Hour
}

// Runner wires the pipeline stages under one configuration and produces
// run statistics. Stages other than extraction run on the orchestrating
// goroutine; the deduplicator is only ever touched here.
type Runner struct {
	cfg          RunConfig
	fetcher      PageFetcher
	listing      parser.ListingParser
	content      parser.ContentParser
	store        Store
	log          logger.Interface
	uploadPolicy retry.Config
	onRecord     func(domain.ArticleRecord)
}

// OnRecord registers an observer invoked for every record queued for upload,
// on the orchestrating goroutine. Used by the backup writers.
func (r *Runner) OnRecord(fn func(domain.ArticleRecord)) {
	r.onRecord = fn
}

// NewRunner creates a runner. The upload retry policy is applied per batch
// inside the sink.
func NewRunner(
	cfg RunConfig,
	fetcher PageFetcher,
	listing parser.ListingParser,
	content parser.ContentParser,
	store Store,
	uploadPolicy retry.Config,
	log logger.Interface,
) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Runner{
		cfg:          cfg,
		fetcher:      fetcher,
		listing:      listing,
		content:      content,
		store:        store,
		log:          log,
		uploadPolicy: uploadPolicy,
	}, nil
}

// Run executes one crawl-extract-filter-dedup-upload pass. The returned
// stats are always non-nil; the error is non-nil only for the aborted case
// (store unreachable before any progress was made).
func (r *Runner) Run(ctx context.Context) (*domain.RunStats, error) {
	referenceTime := time.Now().UTC()
	stats := &domain.RunStats{
		RunID:       uuid.New().String(),
		ReferenceAt: referenceTime,
		StartedAt:   time.Now(),
	}

	r.log.Info("run starting",
		"run_id", stats.RunID,
		"source", r.cfg.Source,
		"window_hours", r.cfg.RecencyWindowHours,
		"page_limit", r.cfg.PageLimit,
	)

	knownURLs, seedErr := r.store.ListKnownURLs(ctx, r.cfg.KnownURLSeedLimit)
	if seedErr != nil {
		stats.Status = domain.RunAborted
		return stats, fmt.Errorf("seed deduplicator from store: %w", seedErr)
	}
	dedup := NewDeduplicator(knownURLs)
	r.log.Info("deduplicator seeded", "known_urls", len(knownURLs))

	walker := NewWalker(r.fetcher, r.listing, WalkerConfig{
		BaseURL:       r.cfg.Source,
		PageLimit:     r.cfg.PageLimit,
		MaxArticles:   r.cfg.MaxArticles,
		RecencyWindow: r.cfg.Window(),
		PageDelay:     r.cfg.PageDelay,
	}, r.log)

	walk := walker.Walk(ctx, referenceTime)
	stats.Discovered = len(walk.Summaries)
	stats.PagesWalked = walk.PagesWalked
	stats.StopReason = walk.StopReason
	for _, f := range walk.Failures {
		stats.AddFailure(f.Stage, f.URL, fmt.Errorf("%s", f.Error))
	}

	r.log.Info("walk finished",
		"discovered", stats.Discovered,
		"pages", stats.PagesWalked,
		"stop_reason", string(walk.StopReason),
	)

	pool := NewExtractionPool(r.fetcher, r.content, r.cfg.ExtractionConcurrency, r.log)
	outcomes := pool.Extract(ctx, walk.Summaries)

	admission := NewAdmissionFilter(referenceTime, r.cfg.Window())
	sink := NewUploadSink(r.store, r.cfg.UploadBatchSize, r.uploadPolicy, r.log)

	for i := range outcomes {
		outcome := &outcomes[i]
		if outcome.Err != nil {
			stats.AddFailure("extract", outcome.Summary.URL, outcome.Err)
			continue
		}
		stats.Extracted++

		if !admission.Admit(&outcome.Record) {
			stats.Rejected++
			continue
		}
		stats.Admitted++

		if dedup.IsDuplicate(outcome.Record.URL) || dedup.IsNearDuplicate(&outcome.Record) {
			stats.Deduplicated++
			continue
		}
		dedup.MarkSeen(&outcome.Record)

		if r.onRecord != nil {
			r.onRecord(outcome.Record)
		}
		sink.Add(ctx, outcome.Record)
	}

	sinkStats := sink.Flush(ctx)
	stats.Uploaded = sinkStats.Uploaded
	stats.Deduplicated += sinkStats.Duplicates
	for _, f := range sinkStats.Failures {
		stats.AddFailure(f.Stage, f.URL, fmt.Errorf("%s", f.Error))
	}

	stats.Finalize()
	r.log.Info("run finished",
		"run_id", stats.RunID,
		"status", string(stats.Status),
		"uploaded", stats.Uploaded,
		"failed", stats.Failed,
		"elapsed", stats.Elapsed,
	)

	return stats, nil
}
