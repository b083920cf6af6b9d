// Package domain provides domain models used across the application.
package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidSummary is returned when an article summary fails validation.
var ErrInvalidSummary = errors.New("invalid article summary")

// ArticleSummary is one entry from a listing page: everything known about an
// article before its body has been fetched. URL is the stable identity.
type ArticleSummary struct {
	// URL uniquely identifies the article.
	URL string `json:"url"`
	// Title of the article as shown on the listing page.
	Title string `json:"title"`
	// Author byline.
	Author string `json:"author,omitempty"`
	// AuthorURL links to the author's page.
	AuthorURL string `json:"author_url,omitempty"`
	// PublishedAt is the absolute publish timestamp. Relative labels such as
	// "2 hours ago" are display-only and never used for window decisions.
	PublishedAt time.Time `json:"published_at"`
	// RelativeTimeLabel is the human-readable age shown on the listing page.
	RelativeTimeLabel string `json:"relative_time,omitempty"`
	// Category is the primary category, when present.
	Category string `json:"category,omitempty"`
	// ImageURL is the listing thumbnail, when present.
	ImageURL string `json:"image_url,omitempty"`
	// SourcePostID is the source CMS post identifier, when present.
	SourcePostID string `json:"source_post_id,omitempty"`
	// DiscoveredAt records when the summary was scraped.
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Validate checks that the summary carries a usable identity and timestamp.
func (s *ArticleSummary) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return errors.New("article summary: empty url")
	}
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("article summary: malformed url")
	}
	if s.PublishedAt.IsZero() {
		return errors.New("article summary: missing publish timestamp")
	}
	return nil
}

// ArticleRecord is a summary plus its extracted plain-text content.
type ArticleRecord struct {
	ArticleSummary

	// Content is the extracted plain-text body.
	Content string `json:"content"`
	// ContentLength is derived from Content.
	ContentLength int `json:"content_length"`
}

// NewArticleRecord builds a record from a summary and its extracted content.
func NewArticleRecord(summary ArticleSummary, content string) ArticleRecord {
	return ArticleRecord{
		ArticleSummary: summary,
		Content:        content,
		ContentLength:  len(content),
	}
}

// HasContent reports whether the record carries a non-blank body.
func (r *ArticleRecord) HasContent() bool {
	return strings.TrimSpace(r.Content) != ""
}
