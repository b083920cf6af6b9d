package wpblock

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pressrun/pressrun/internal/parser"
)

// contentSelectors are tried in order; block themes vary in which
// container wraps the article body.
var contentSelectors = []string{
	".wp-block-post-content",
	".entry-content",
	".article-content",
	"main .wp-block-group",
}

// nonContentSelectors lists elements stripped before text extraction.
const nonContentSelectors = "script, style, nav, aside, footer, header"

// promoSelectors matches ad, promo and related-article blocks inside the body.
const promoSelectors = `[class*="ad"], [class*="promo"], [class*="related"]`

// minContentLength guards against matching a container that holds only
// boilerplate rather than the article body.
const minContentLength = 100

// ContentParser extracts plain-text article bodies from block-theme pages.
type ContentParser struct{}

// NewContentParser creates a content parser.
func NewContentParser() *ContentParser {
	return &ContentParser{}
}

// ParseContent extracts the article body as plain text. Returns ErrNoContent
// when no known container yields a body of usable length.
func (p *ContentParser) ParseContent(articleURL string, articleHTML []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(articleHTML))
	if err != nil {
		return "", &parser.ParseError{URL: articleURL, Cause: err}
	}

	for _, selector := range contentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		container.Find(nonContentSelectors).Remove()
		container.Find(promoSelectors).Remove()

		content := collectText(container)
		if len(content) >= minContentLength {
			return content, nil
		}
	}

	return "", &parser.ParseError{URL: articleURL, Cause: parser.ErrNoContent}
}

// collectText joins the container's paragraph-level text with newlines,
// skipping blank segments.
func collectText(container *goquery.Selection) string {
	var parts []string

	blocks := container.Find("p, h2, h3, h4, li, blockquote")
	if blocks.Length() == 0 {
		return strings.TrimSpace(container.Text())
	}

	blocks.Each(func(_ int, block *goquery.Selection) {
		if text := strings.TrimSpace(block.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, "\n")
}
