package rssfeed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressrun/pressrun/internal/parser/rssfeed"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <item>
      <title>First Article</title>
      <link>https://news.example.com/first</link>
      <category>Hardware</category>
      <pubDate>Sat, 01 Jun 2024 15:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Second Article</title>
      <link>https://news.example.com/second</link>
      <pubDate>Sat, 01 Jun 2024 12:00:00 +0000</pubDate>
    </item>
    <item>
      <title>No Timestamp</title>
      <link>https://news.example.com/undated</link>
    </item>
    <item>
      <title>GUID Only</title>
      <guid>https://news.example.com/guid-article</guid>
      <pubDate>Sat, 01 Jun 2024 10:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestParseListing_RSS(t *testing.T) {
	t.Parallel()

	p := rssfeed.NewListingParser()

	summaries, err := p.ParseListing("https://news.example.com/feed/", []byte(rssFixture))
	require.NoError(t, err)

	// The undated item is skipped; the GUID-only item resolves its link.
	require.Len(t, summaries, 3)

	assert.Equal(t, "https://news.example.com/first", summaries[0].URL)
	assert.Equal(t, "First Article", summaries[0].Title)
	assert.Equal(t, "Hardware", summaries[0].Category)
	assert.False(t, summaries[0].PublishedAt.IsZero())

	assert.Equal(t, "https://news.example.com/guid-article", summaries[2].URL)
}

func TestParseListing_Malformed(t *testing.T) {
	t.Parallel()

	p := rssfeed.NewListingParser()

	_, err := p.ParseListing("https://news.example.com/feed/", []byte("not a feed"))
	require.Error(t, err)
}
