package pipeline

import (
	"strings"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/textsim"
)

// Deduplicator suppresses articles already seen in-run or already present in
// the store. It is seeded from the store's known URLs at run start and grown
// as records are admitted; its lifetime is exactly one run. The store's
// uniqueness constraint on URL remains the authoritative backstop; this set
// only avoids redundant upload attempts.
//
// Beyond exact URLs it also tracks titles and normalized content prefixes
// within the run, so the same story cross-posted under a second URL is not
// uploaded twice.
type Deduplicator struct {
	urls      map[string]struct{}
	titles    map[string]struct{}
	prefixes  []string
	threshold float64
}

// NewDeduplicator creates a deduplicator seeded with the store's known URLs.
func NewDeduplicator(knownURLs []string) *Deduplicator {
	d := &Deduplicator{
		urls:      make(map[string]struct{}, len(knownURLs)),
		titles:    make(map[string]struct{}),
		threshold: textsim.DefaultThreshold,
	}
	for _, u := range knownURLs {
		d.urls[u] = struct{}{}
	}
	return d
}

// IsDuplicate reports whether the URL has been seen before, in this run or
// in the store.
func (d *Deduplicator) IsDuplicate(url string) bool {
	_, seen := d.urls[url]
	return seen
}

// IsNearDuplicate reports whether a record repeats an already-seen title or
// near-identical content prefix within this run.
func (d *Deduplicator) IsNearDuplicate(record *domain.ArticleRecord) bool {
	if title := strings.TrimSpace(record.Title); title != "" {
		if _, seen := d.titles[title]; seen {
			return true
		}
	}

	prefix := textsim.NormalizePrefix(record.Content)
	if prefix == "" {
		return false
	}

	for _, existing := range d.prefixes {
		if textsim.Similar(prefix, existing, d.threshold) {
			return true
		}
	}

	return false
}

// MarkSeen records the article's URL, title, and content prefix so later
// repeats within the run are suppressed.
func (d *Deduplicator) MarkSeen(record *domain.ArticleRecord) {
	d.urls[record.URL] = struct{}{}

	if title := strings.TrimSpace(record.Title); title != "" {
		d.titles[title] = struct{}{}
	}

	if prefix := textsim.NormalizePrefix(record.Content); prefix != "" {
		d.prefixes = append(d.prefixes, prefix)
	}
}

// KnownURLCount returns the size of the seeded and grown URL set.
func (d *Deduplicator) KnownURLCount() int {
	return len(d.urls)
}
