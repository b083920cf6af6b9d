// Package wpblock parses WordPress block-theme news listings and articles,
// the markup family used by techcrunch.com and similar sites.
package wpblock

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/parser"
)

// postIDClassPrefix is the class prefix carrying the CMS post identifier.
const postIDClassPrefix = "post-"

// ListingParser extracts article summaries from a block-theme listing page.
type ListingParser struct {
	now func() time.Time
}

// NewListingParser creates a listing parser.
func NewListingParser() *ListingParser {
	return &ListingParser{now: time.Now}
}

// ParseListing parses a listing page into summaries in source order.
// Entries without a title, link, or parseable timestamp are skipped;
// a page whose markup cannot be parsed at all yields a ParseError.
func (p *ListingParser) ParseListing(pageURL string, pageHTML []byte) ([]domain.ArticleSummary, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, &parser.ParseError{URL: pageURL, Cause: err}
	}

	var summaries []domain.ArticleSummary

	doc.Find("li.wp-block-post").Each(func(_ int, sel *goquery.Selection) {
		summary, ok := p.parsePost(sel)
		if !ok {
			return
		}
		summaries = append(summaries, summary)
	})

	return summaries, nil
}

// parsePost extracts one summary from a listing entry. Returns false when
// the entry lacks the fields required for a usable summary.
func (p *ListingParser) parsePost(sel *goquery.Selection) (domain.ArticleSummary, bool) {
	var summary domain.ArticleSummary

	titleLink := sel.Find(`a[href*="/20"]`).FilterFunction(func(_ int, link *goquery.Selection) bool {
		return strings.TrimSpace(link.Text()) != ""
	}).First()

	summary.Title = strings.TrimSpace(titleLink.Text())
	summary.URL, _ = titleLink.Attr("href")

	if summary.Title == "" || summary.URL == "" {
		return domain.ArticleSummary{}, false
	}

	if authorLink := sel.Find(`a[href*="/author/"]`).First(); authorLink.Length() > 0 {
		summary.Author = strings.TrimSpace(authorLink.Text())
		summary.AuthorURL, _ = authorLink.Attr("href")
	}

	timeElem := sel.Find("time").First()
	datetime, _ := timeElem.Attr("datetime")
	publishedAt, parseErr := parseTimestamp(datetime)
	if parseErr != nil {
		return domain.ArticleSummary{}, false
	}
	summary.PublishedAt = publishedAt
	summary.RelativeTimeLabel = strings.TrimSpace(timeElem.Text())

	if categoryLink := sel.Find(`a[href*="/category/"]`).First(); categoryLink.Length() > 0 {
		summary.Category = strings.TrimSpace(categoryLink.Text())
	}

	if img := sel.Find("img").First(); img.Length() > 0 {
		summary.ImageURL, _ = img.Attr("src")
	}

	summary.SourcePostID = extractPostID(sel)
	summary.DiscoveredAt = p.now().UTC()

	return summary, true
}

// parseTimestamp parses the <time datetime> attribute into UTC. The source
// publishes RFC 3339 timestamps with either Z or a numeric zone offset.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty datetime attribute")
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime %q: %w", raw, err)
	}

	return t.UTC(), nil
}

// extractPostID pulls the numeric CMS post ID from the entry's class list.
func extractPostID(sel *goquery.Selection) string {
	classes, _ := sel.Attr("class")
	for _, cls := range strings.Fields(classes) {
		id, found := strings.CutPrefix(cls, postIDClassPrefix)
		if found && id != "" && isDigits(id) {
			return id
		}
	}
	return ""
}

// isDigits reports whether s consists only of ASCII digits.
func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
