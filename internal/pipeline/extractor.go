package pipeline

import (
	"context"
	"sync"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/logger"
	"github.com/pressrun/pressrun/internal/parser"
)

// ExtractionOutcome is the result of resolving content for one summary:
// either a complete record or the error that prevented it. Every input
// summary produces exactly one outcome.
type ExtractionOutcome struct {
	Summary domain.ArticleSummary
	Record  domain.ArticleRecord
	Err     error
}

// ExtractionPool concurrently resolves full content for a batch of
// summaries with a bounded number of in-flight fetch+parse operations.
// The pool is scoped to one batch: Extract launches its workers, drains
// them, and returns only when every outcome has been collected, so no
// goroutine outlives the call.
type ExtractionPool struct {
	fetcher     PageFetcher
	parser      parser.ContentParser
	log         logger.Interface
	concurrency int
}

// NewExtractionPool creates a pool with the given concurrency bound.
func NewExtractionPool(fetcher PageFetcher, contentParser parser.ContentParser, concurrency int, log logger.Interface) *ExtractionPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ExtractionPool{
		fetcher:     fetcher,
		parser:      contentParser,
		log:         log,
		concurrency: concurrency,
	}
}

// Extract resolves content for every summary. Output order follows
// completion, not input order. When the context ends, remaining summaries
// receive the context error as their outcome; in-flight fetches finish or
// time out on their own.
func (p *ExtractionPool) Extract(ctx context.Context, summaries []domain.ArticleSummary) []ExtractionOutcome {
	if len(summaries) == 0 {
		return nil
	}

	jobs := make(chan domain.ArticleSummary)
	outcomes := make(chan ExtractionOutcome)

	var wg sync.WaitGroup
	for range p.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for summary := range jobs {
				outcomes <- p.extractOne(ctx, summary)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, summary := range summaries {
			jobs <- summary
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]ExtractionOutcome, 0, len(summaries))
	for outcome := range outcomes {
		results = append(results, outcome)
	}

	return results
}

// extractOne fetches and parses a single article.
func (p *ExtractionPool) extractOne(ctx context.Context, summary domain.ArticleSummary) ExtractionOutcome {
	if err := ctx.Err(); err != nil {
		return ExtractionOutcome{Summary: summary, Err: err}
	}

	raw, fetchErr := p.fetcher.Fetch(ctx, summary.URL)
	if fetchErr != nil {
		p.log.Debug("content fetch failed", "url", summary.URL, "error", fetchErr.Error())
		return ExtractionOutcome{Summary: summary, Err: fetchErr}
	}

	content, parseErr := p.parser.ParseContent(summary.URL, raw)
	if parseErr != nil {
		p.log.Debug("content parse failed", "url", summary.URL, "error", parseErr.Error())
		return ExtractionOutcome{Summary: summary, Err: parseErr}
	}

	return ExtractionOutcome{
		Summary: summary,
		Record:  domain.NewArticleRecord(summary, content),
	}
}
