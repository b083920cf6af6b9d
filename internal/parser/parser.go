// Package parser defines the parsing capabilities the pipeline depends on.
// Site-specific parsing rules live in implementations under this package;
// the pipeline itself never branches on source identity.
package parser

import (
	"errors"
	"fmt"

	"github.com/pressrun/pressrun/internal/domain"
)

// ErrNoContent is returned when an article page yields no usable body text.
var ErrNoContent = errors.New("no usable content found")

// ParseError reports a page whose markup could not be parsed. It indicates
// structural drift in the source and is surfaced to the run's failure list,
// never silently swallowed.
type ParseError struct {
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ListingParser parses one listing page's markup into an ordered sequence
// of article summaries, preserving source order.
type ListingParser interface {
	ParseListing(pageURL string, pageHTML []byte) ([]domain.ArticleSummary, error)
}

// ContentParser parses one article page's markup into plain-text content.
type ContentParser interface {
	ParseContent(articleURL string, articleHTML []byte) (string, error)
}
