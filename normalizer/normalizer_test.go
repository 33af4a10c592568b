// ABOUTME: This file tests item normalization across RSS 2.0, Atom and RDF
// ABOUTME: documents: candidates, dates, guids, authors and media hints
package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpress/domain"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
<title>RSS &amp; More</title>
<link>https://example.com</link>
<item>
  <guid isPermaLink="true">https://example.com/posts/1</guid>
  <title>First &lt;b&gt;Post&lt;/b&gt;</title>
  <link>https://example.com/posts/1</link>
  <description>Short summary of the first post.</description>
  <content:encoded><![CDATA[<p>Full body of the <strong>first</strong> post.</p><img src="https://example.com/inline.jpg"/>]]></content:encoded>
  <pubDate>Tue, 10 Feb 2026 09:00:00 +0000</pubDate>
  <author>writer@example.com (Jane Writer)</author>
  <category>go</category>
  <category>feeds</category>
  <media:content url="https://example.com/media.jpg" width="800" height="600"/>
  <media:thumbnail url="https://example.com/thumb.jpg"/>
  <enclosure url="https://example.com/enclosure.png" type="image/png" length="1234"/>
</item>
<item>
  <guid>internal-id-2</guid>
  <title>Second Post</title>
  <link>https://example.com/posts/2</link>
  <description>Only a description here.</description>
  <pubDate>Mon, 09 Feb 2026 18:30:00 +0000</pubDate>
</item>
<item>
  <title>No Date Post</title>
  <link>https://example.com/posts/3</link>
  <description>Dateless.</description>
</item>
</channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Example</title>
  <link href="https://atom.example.com/"/>
  <updated>2026-02-10T12:00:00Z</updated>
  <entry>
    <id>urn:uuid:entry-1</id>
    <title>Atom Entry</title>
    <link rel="alternate" href="https://atom.example.com/entries/1"/>
    <link rel="enclosure" href="https://atom.example.com/entries/1.mp3"/>
    <summary>Entry summary text.</summary>
    <content type="html">&lt;p&gt;Atom body content.&lt;/p&gt;</content>
    <updated>2026-02-09T08:00:00Z</updated>
    <author><name>Atom Author</name></author>
  </entry>
</feed>`

const rdfDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel rdf:about="https://rdf.example.com/">
  <title>RDF Example</title>
  <link>https://rdf.example.com/</link>
</channel>
<item rdf:about="https://rdf.example.com/items/1">
  <title>RDF Item</title>
  <link>https://rdf.example.com/items/1</link>
  <description>RDF description.</description>
  <dc:date>2026-02-08T10:15:00Z</dc:date>
  <dc:creator>RDF Writer</dc:creator>
</item>
</rdf:RDF>`

func TestParseFeed(t *testing.T) {
	tests := map[string]struct {
		raw       string
		wantType  string
		wantItems int
		wantErr   bool
	}{
		"rss 2.0":       {raw: rssDoc, wantType: "rss", wantItems: 3},
		"atom 1.0":      {raw: atomDoc, wantType: "atom", wantItems: 1},
		"rdf / rss 1.0": {raw: rdfDoc, wantType: "rss", wantItems: 1},
		"not xml":       {raw: "plain text, no feed here", wantErr: true},
		"empty":         {raw: "", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			feed, err := ParseFeed([]byte(tc.raw))
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrFeedParse)
				return
			}
			require.NoError(t, err)
			assert.Len(t, feed.Items, tc.wantItems)
		})
	}
}

func TestNormalizeItem_RSS(t *testing.T) {
	feed, err := ParseFeed([]byte(rssDoc))
	require.NoError(t, err)

	item, err := NormalizeItem(feed, feed.Items[0], "https://example.com/rss")
	require.NoError(t, err)

	assert.Equal(t, "First Post", item.Title, "markup in titles is stripped")
	assert.Equal(t, "https://example.com/posts/1", item.CanonicalURL)
	assert.Equal(t, "https://example.com/posts/1", item.GUID)
	assert.True(t, item.IsPermaLink)
	assert.Equal(t, []string{"go", "feeds"}, item.Categories)
	assert.Equal(t, "https://example.com/rss", item.FeedURL)

	wantPublished := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	assert.True(t, wantPublished.Equal(item.PublishedAt))

	// content:encoded lands in the dedicated candidate, not description.
	assert.Contains(t, item.Candidates.ContentEncoded, "Full body")
	assert.Empty(t, item.Candidates.Content)
	assert.Equal(t, "Short summary of the first post.", item.Candidates.DescriptionOrSummary)

	// Media hints from all four tiers.
	require.Len(t, item.Media.MediaContent, 1)
	assert.Equal(t, "https://example.com/media.jpg", item.Media.MediaContent[0].URL)
	assert.Equal(t, 800, item.Media.MediaContent[0].Width)
	require.Len(t, item.Media.MediaThumbnail, 1)
	require.NotNil(t, item.Media.EnclosureImage)
	assert.Equal(t, "https://example.com/enclosure.png", item.Media.EnclosureImage.URL)
	assert.Contains(t, item.Media.InlineImages, "https://example.com/inline.jpg")
}

func TestNormalizeItem_NonPermalinkGUID(t *testing.T) {
	feed, err := ParseFeed([]byte(rssDoc))
	require.NoError(t, err)

	item, err := NormalizeItem(feed, feed.Items[1], "https://example.com/rss")
	require.NoError(t, err)

	assert.Equal(t, "internal-id-2", item.GUID)
	assert.False(t, item.IsPermaLink)
	assert.Equal(t, "https://example.com/posts/2", item.CanonicalURL)
}

func TestNormalizeItem_NoDateIsInvalid(t *testing.T) {
	feed, err := ParseFeed([]byte(rssDoc))
	require.NoError(t, err)

	_, err = NormalizeItem(feed, feed.Items[2], "https://example.com/rss")
	assert.ErrorIs(t, err, domain.ErrNoPublishDate)
}

func TestNormalizeItem_Atom(t *testing.T) {
	feed, err := ParseFeed([]byte(atomDoc))
	require.NoError(t, err)

	item, err := NormalizeItem(feed, feed.Items[0], "https://atom.example.com/feed")
	require.NoError(t, err)

	assert.Equal(t, "Atom Entry", item.Title)
	assert.Equal(t, "https://atom.example.com/entries/1", item.CanonicalURL, "rel=alternate link wins")
	assert.Equal(t, "urn:uuid:entry-1", item.GUID)
	assert.False(t, item.IsPermaLink)
	assert.Equal(t, "Atom Author", item.Author)

	// Atom <content> is a distinct candidate from <summary>.
	assert.Contains(t, item.Candidates.Content, "Atom body content")
	assert.Empty(t, item.Candidates.ContentEncoded)
	assert.Equal(t, "Entry summary text.", item.Candidates.DescriptionOrSummary)

	// No <published>: updated is the fallback.
	wantPublished := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)
	assert.True(t, wantPublished.Equal(item.PublishedAt))
}

func TestNormalizeItem_RDFDublinCore(t *testing.T) {
	feed, err := ParseFeed([]byte(rdfDoc))
	require.NoError(t, err)

	item, err := NormalizeItem(feed, feed.Items[0], "https://rdf.example.com/feed")
	require.NoError(t, err)

	assert.Equal(t, "RDF Item", item.Title)
	assert.Equal(t, "RDF Writer", item.Author)

	wantPublished := time.Date(2026, 2, 8, 10, 15, 0, 0, time.UTC)
	assert.True(t, wantPublished.Equal(item.PublishedAt))
}

func TestNormalizeItem_NilOrEmpty(t *testing.T) {
	feed, err := ParseFeed([]byte(rssDoc))
	require.NoError(t, err)

	_, err = NormalizeItem(feed, nil, "https://example.com/rss")
	assert.ErrorIs(t, err, domain.ErrItemInvalid)
}

func TestCleanTitle(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want string
	}{
		"plain":              {raw: "Hello World", want: "Hello World"},
		"embedded markup":    {raw: "Hello <b>World</b>", want: "Hello World"},
		"entities":           {raw: "Ben &amp; Jerry", want: "Ben & Jerry"},
		"collapse space":     {raw: "  Hello \n\t World  ", want: "Hello World"},
		"empty":              {raw: "", want: ""},
		"markup only":        {raw: "<span></span>", want: ""},
		"double escaped tag": {raw: "A &lt;i&gt;title&lt;/i&gt;", want: "A title"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanTitle(tc.raw))
		})
	}
}

func TestStripTags(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want string
	}{
		"plain text":     {raw: "no tags", want: "no tags"},
		"simple markup":  {raw: "<p>Hello <em>there</em></p>", want: "Hello there"},
		"script dropped": {raw: "<p>keep</p><script>alert(1)</script>", want: "keep"},
		"style dropped":  {raw: "<style>p{}</style><p>body</p>", want: "body"},
		"empty":          {raw: "", want: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripTags(tc.raw))
		})
	}
}
