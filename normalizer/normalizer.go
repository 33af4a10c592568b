// ABOUTME: This file maps one parsed feed item into the canonical NormalizedItem shape
// ABOUTME: Field extraction runs as ordered fallback chains to absorb publisher differences
package normalizer

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"linkpress/domain"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeItem maps a single parsed item into the canonical shape.
// An item with no resolvable publish timestamp fails with ErrNoPublishDate;
// one with neither title nor content signal fails with ErrItemInvalid.
// Callers degrade failed items to a minimal fallback article.
func NormalizeItem(feed *gofeed.Feed, item *gofeed.Item, feedURL string) (*domain.NormalizedItem, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: nil item", domain.ErrItemInvalid)
	}

	title := CleanTitle(item.Title)
	candidates := extractCandidates(feed, item)

	if title == "" && candidates.ContentEncoded == "" && candidates.Content == "" && candidates.DescriptionOrSummary == "" {
		return nil, domain.ErrItemInvalid
	}

	publishedAt, err := resolvePublishedAt(item)
	if err != nil {
		return nil, err
	}

	guid := strings.TrimSpace(item.GUID)

	normalized := &domain.NormalizedItem{
		Title:        title,
		CanonicalURL: resolveCanonicalURL(item),
		PublishedAt:  publishedAt,
		Author:       resolveAuthor(item),
		Categories:   resolveCategories(item),
		GUID:         guid,
		IsPermaLink:  looksLikePermalink(guid),
		Candidates:   candidates,
		Media:        extractMediaHints(item, candidates),
		FeedURL:      feedURL,
	}

	return normalized, nil
}

// CleanTitle strips markup, unescapes entities and collapses whitespace.
func CleanTitle(raw string) string {
	text := StripTags(raw)
	text = html.UnescapeString(text)
	// Double-escaped titles reveal their markup only after unescaping.
	if strings.Contains(text, "<") {
		text = StripTags(text)
	}
	text = whitespaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// extractCandidates keeps the competing HTML sources distinct. The universal
// parser routes content:encoded into Item.Content for RSS/RDF documents and
// <content> into the same field for Atom, so the feed dialect decides which
// candidate slot the value lands in.
func extractCandidates(feed *gofeed.Feed, item *gofeed.Item) domain.RawHTMLCandidates {
	candidates := domain.RawHTMLCandidates{
		DescriptionOrSummary: strings.TrimSpace(item.Description),
	}

	content := strings.TrimSpace(item.Content)
	if content == "" {
		return candidates
	}

	if feed != nil && isAtom(feed) {
		candidates.Content = content
	} else {
		candidates.ContentEncoded = content
	}

	return candidates
}

// resolveCanonicalURL prefers Item.Link, which the Atom translator already
// selects by rel=alternate (or absence of rel); any remaining link wins next.
func resolveCanonicalURL(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}

	for _, link := range item.Links {
		if trimmed := strings.TrimSpace(link); trimmed != "" {
			return trimmed
		}
	}

	return ""
}

var dcDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// resolvePublishedAt tries published, then updated, then dc:date. It never
// invents "now": an unresolvable date is the caller's signal to treat the
// item as invalid.
func resolvePublishedAt(item *gofeed.Item) (time.Time, error) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, nil
	}

	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, nil
	}

	if item.DublinCoreExt != nil {
		for _, raw := range item.DublinCoreExt.Date {
			for _, layout := range dcDateLayouts {
				if ts, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
					return ts, nil
				}
			}
		}
	}

	return time.Time{}, domain.ErrNoPublishDate
}

func resolveAuthor(item *gofeed.Item) string {
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		return strings.TrimSpace(item.Author.Name)
	}

	for _, author := range item.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			return strings.TrimSpace(author.Name)
		}
	}

	if item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			if trimmed := strings.TrimSpace(StripTags(creator)); trimmed != "" {
				return trimmed
			}
		}
	}

	return ""
}

func resolveCategories(item *gofeed.Item) []string {
	if len(item.Categories) == 0 {
		return nil
	}

	out := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// looksLikePermalink mirrors the common RSS convention: a guid that is an
// absolute http(s) URL doubles as the item's permalink.
func looksLikePermalink(guid string) bool {
	return strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://")
}

func extractMediaHints(item *gofeed.Item, candidates domain.RawHTMLCandidates) domain.MediaHints {
	hints := domain.MediaHints{}

	if media, ok := item.Extensions["media"]; ok {
		hints.MediaContent = extensionImages(media["content"])
		hints.MediaThumbnail = extensionImages(media["thumbnail"])
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enclosure.Type), "image/") {
			hints.EnclosureImage = &domain.MediaImage{URL: enclosure.URL}
			break
		}
	}

	hints.InlineImages = scanInlineImages(candidates)

	return hints
}

func extensionImages(exts []ext.Extension) []domain.MediaImage {
	var images []domain.MediaImage

	for _, e := range exts {
		url := e.Attrs["url"]
		if url == "" {
			continue
		}

		image := domain.MediaImage{URL: url}

		if w, err := strconv.Atoi(e.Attrs["width"]); err == nil {
			image.Width = w
		}
		if h, err := strconv.Atoi(e.Attrs["height"]); err == nil {
			image.Height = h
		}

		images = append(images, image)
	}

	return images
}

// scanInlineImages collects <img src> values from every raw candidate,
// deduplicated in document order.
func scanInlineImages(candidates domain.RawHTMLCandidates) []string {
	var images []string
	seen := make(map[string]bool)

	for _, raw := range []string{candidates.ContentEncoded, candidates.Content, candidates.DescriptionOrSummary} {
		if raw == "" || !strings.Contains(raw, "<img") {
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err != nil {
			continue
		}

		doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			if src != "" && !seen[src] {
				seen[src] = true
				images = append(images, src)
			}
		})
	}

	return images
}
