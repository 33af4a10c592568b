// ABOUTME: This file wraps the universal feed parser for RSS 2.0, Atom and RDF dialects
// ABOUTME: Parse failures are typed so the orchestrator can report them per feed
package normalizer

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"linkpress/domain"
)

// ParseFeed parses raw feed XML into the dialect-independent gofeed shape.
// The universal parser detects RSS 2.0 (including multiple channel blocks),
// Atom 1.0 and RDF/RSS 1.0; a missing item list yields an empty slice rather
// than an error.
func ParseFeed(raw []byte) (*gofeed.Feed, error) {
	parser := gofeed.NewParser()

	feed, err := parser.ParseString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedParse, err)
	}

	return feed, nil
}

// isAtom reports whether the parsed feed came from an Atom document. The
// distinction matters only for labeling which raw candidate carried the body.
func isAtom(feed *gofeed.Feed) bool {
	return strings.EqualFold(feed.FeedType, "atom")
}
