// ABOUTME: Domain-level sentinel errors for the linkpress ingestion pipeline
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import (
	"errors"
	"fmt"
)

// Fetch errors
var (
	// ErrFeedRequestTimedOut indicates the feed fetch exceeded its deadline
	ErrFeedRequestTimedOut = errors.New("feed request timed out")

	// ErrInvalidFeedResponse indicates the response body is not feed text
	ErrInvalidFeedResponse = errors.New("invalid feed response")
)

// Parse and normalization errors
var (
	// ErrFeedParse indicates the feed XML could not be parsed
	ErrFeedParse = errors.New("feed parse failed")

	// ErrNoPublishDate indicates an item carries no resolvable publish timestamp
	ErrNoPublishDate = errors.New("item has no resolvable publish date")

	// ErrItemInvalid indicates an item has neither a title nor any content signal
	ErrItemInvalid = errors.New("item carries no usable signal")
)

// Persistence and listing errors
var (
	// ErrInvalidFeedURL indicates a registration URL is malformed or not http(s)
	ErrInvalidFeedURL = errors.New("invalid feed url")

	// ErrFeedNotFound indicates the requested feed does not exist
	ErrFeedNotFound = errors.New("feed not found")

	// ErrFeedAlreadyRegistered indicates the owner already registered this URL
	ErrFeedAlreadyRegistered = errors.New("feed already registered")

	// ErrInvalidCursor indicates a pagination cursor could not be decoded
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// FeedHTTPError reports a non-2xx response from a feed endpoint.
type FeedHTTPError struct {
	Status int
}

func (e *FeedHTTPError) Error() string {
	return fmt.Sprintf("feed fetch returned HTTP %d", e.Status)
}
