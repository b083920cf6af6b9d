package wpblock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressrun/pressrun/internal/parser/wpblock"
)

const listingFixture = `<!DOCTYPE html>
<html><body>
<ul>
  <li class="wp-block-post post-123456 type-post">
    <img src="https://cdn.example.com/thumb-1.jpg" alt="">
    <a href="https://news.example.com/category/ai/">AI</a>
    <h2><a href="https://news.example.com/2024/06/01/robots-learn-to-fold/">Robots learn to fold laundry</a></h2>
    <a href="https://news.example.com/author/jane-doe/">Jane Doe</a>
    <time datetime="2024-06-01T15:04:05Z">2 hours ago</time>
  </li>
  <li class="wp-block-post post-123457 type-post">
    <h2><a href="https://news.example.com/2024/06/01/chips-get-smaller/">Chips get smaller again</a></h2>
    <a href="https://news.example.com/author/sam-roe/">Sam Roe</a>
    <time datetime="2024-06-01T12:00:00-07:00">5 hours ago</time>
  </li>
  <li class="wp-block-post post-123458 type-post">
    <h2><a href="https://news.example.com/2024/06/01/no-timestamp/">Entry without timestamp</a></h2>
  </li>
  <li class="wp-block-post post-123459 type-post">
    <time datetime="2024-06-01T10:00:00Z">7 hours ago</time>
  </li>
</ul>
</body></html>`

func TestParseListing(t *testing.T) {
	t.Parallel()

	p := wpblock.NewListingParser()

	summaries, err := p.ParseListing("https://news.example.com/latest/", []byte(listingFixture))
	require.NoError(t, err)

	// Entries without a timestamp or title are skipped.
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, "https://news.example.com/2024/06/01/robots-learn-to-fold/", first.URL)
	assert.Equal(t, "Robots learn to fold laundry", first.Title)
	assert.Equal(t, "Jane Doe", first.Author)
	assert.Equal(t, "https://news.example.com/author/jane-doe/", first.AuthorURL)
	assert.Equal(t, "AI", first.Category)
	assert.Equal(t, "https://cdn.example.com/thumb-1.jpg", first.ImageURL)
	assert.Equal(t, "123456", first.SourcePostID)
	assert.Equal(t, "2 hours ago", first.RelativeTimeLabel)
	assert.Equal(t, time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC), first.PublishedAt)
	assert.False(t, first.DiscoveredAt.IsZero())
	require.NoError(t, first.Validate())

	// Zone offsets are normalized to UTC.
	second := summaries[1]
	assert.Equal(t, "Chips get smaller again", second.Title)
	assert.Equal(t, time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC), second.PublishedAt)
}

func TestParseListing_PreservesSourceOrder(t *testing.T) {
	t.Parallel()

	p := wpblock.NewListingParser()

	summaries, err := p.ParseListing("https://news.example.com/latest/", []byte(listingFixture))
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.True(t, summaries[0].PublishedAt.After(summaries[1].PublishedAt),
		"listing fixture is reverse-chronological and order must be preserved")
}

func TestParseListing_EmptyPage(t *testing.T) {
	t.Parallel()

	p := wpblock.NewListingParser()

	summaries, err := p.ParseListing("https://news.example.com/latest/page/99/", []byte("<html><body></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
