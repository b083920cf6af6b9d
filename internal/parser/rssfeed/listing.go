// Package rssfeed implements ListingParser over RSS and Atom feeds, for
// sources that publish a feed alongside (or instead of) an HTML listing.
package rssfeed

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/parser"
)

// httpPrefix is the scheme prefix used to decide whether a GUID is a URL.
const httpPrefix = "http"

// ListingParser extracts article summaries from a feed document.
type ListingParser struct {
	now func() time.Time
}

// NewListingParser creates a feed-backed listing parser.
func NewListingParser() *ListingParser {
	return &ListingParser{now: time.Now}
}

// ParseListing parses a feed body into summaries in feed order. Items
// without a usable link or publish timestamp are skipped.
func (p *ListingParser) ParseListing(pageURL string, pageHTML []byte) ([]domain.ArticleSummary, error) {
	parsed, err := gofeed.NewParser().ParseString(string(pageHTML))
	if err != nil {
		return nil, &parser.ParseError{URL: pageURL, Cause: err}
	}

	summaries := make([]domain.ArticleSummary, 0, len(parsed.Items))

	for _, entry := range parsed.Items {
		link := extractLink(entry)
		if link == "" {
			continue
		}

		publishedAt := entryTime(entry)
		if publishedAt.IsZero() {
			continue
		}

		summary := domain.ArticleSummary{
			URL:          link,
			Title:        strings.TrimSpace(entry.Title),
			PublishedAt:  publishedAt,
			Category:     firstCategory(entry),
			DiscoveredAt: p.now().UTC(),
		}

		if len(entry.Authors) > 0 {
			summary.Author = strings.TrimSpace(entry.Authors[0].Name)
		}

		if entry.Image != nil {
			summary.ImageURL = entry.Image.URL
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// extractLink returns the best available URL from a feed entry, preferring
// the explicit link and falling back to a URL-shaped GUID.
func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}

	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}

	return ""
}

// entryTime returns the entry's publish time in UTC, falling back to the
// updated time for feeds that only carry one of the two.
func entryTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}

	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}

	return time.Time{}
}

// firstCategory returns the entry's first category, when present.
func firstCategory(entry *gofeed.Item) string {
	if len(entry.Categories) == 0 {
		return ""
	}
	return strings.TrimSpace(entry.Categories[0])
}
