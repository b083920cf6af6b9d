package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/pipeline"
)

// fakeFetcher serves canned bodies or errors by URL.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: make(map[string][]byte),
		errs:   make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if body, ok := f.bodies[url]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("no fixture for %s", url)
}

func (f *fakeFetcher) fetched(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

// pageListingParser maps page URLs to fixed summaries, bypassing HTML.
type pageListingParser struct {
	pages map[string][]domain.ArticleSummary
}

func (p *pageListingParser) ParseListing(pageURL string, _ []byte) ([]domain.ArticleSummary, error) {
	return p.pages[pageURL], nil
}

// textContentParser returns the fetched body as content verbatim.
type textContentParser struct{}

func (textContentParser) ParseContent(_ string, articleHTML []byte) (string, error) {
	if len(articleHTML) == 0 {
		return "", errors.New("empty body")
	}
	return string(articleHTML), nil
}

// fakeStore is an in-memory Store with scriptable failures.
type fakeStore struct {
	mu          sync.Mutex
	rows        map[string]domain.ArticleRecord
	known       []string
	failures    int // fail this many UpsertBatch calls before succeeding
	failForever bool
	listErr     error
	batches     [][]domain.ArticleRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]domain.ArticleRecord)}
}

func (s *fakeStore) UpsertBatch(_ context.Context, records []domain.ArticleRecord) (domain.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failForever {
		return domain.UpsertResult{}, errors.New("store unavailable")
	}
	if s.failures > 0 {
		s.failures--
		return domain.UpsertResult{}, errors.New("transient store error")
	}

	s.batches = append(s.batches, records)

	var result domain.UpsertResult
	for _, r := range records {
		if _, exists := s.rows[r.URL]; exists {
			result.Duplicates++
			continue
		}
		s.rows[r.URL] = r
		result.Inserted++
	}
	return result, nil
}

func (s *fakeStore) ListKnownURLs(_ context.Context, _ int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	urls := make([]string, 0, len(s.known)+len(s.rows))
	urls = append(urls, s.known...)
	for u := range s.rows {
		urls = append(urls, u)
	}
	return urls, nil
}

// summaryAt builds a valid summary published at the given time.
func summaryAt(url string, publishedAt time.Time) domain.ArticleSummary {
	return domain.ArticleSummary{
		URL:          url,
		Title:        "Title for " + url,
		PublishedAt:  publishedAt,
		DiscoveredAt: time.Now().UTC(),
	}
}

var _ pipeline.PageFetcher = (*fakeFetcher)(nil)
var _ pipeline.Store = (*fakeStore)(nil)
