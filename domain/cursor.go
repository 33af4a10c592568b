package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Cursor is an opaque pagination position over (created_at, id).
type Cursor struct {
	LastCreatedAt *time.Time
	LastID        string
}

// Encode serializes the cursor into an opaque base64 token. A zero cursor
// encodes to the empty string.
func (c *Cursor) Encode() string {
	if c == nil || c.LastCreatedAt == nil || c.LastID == "" {
		return ""
	}

	raw := fmt.Sprintf("%s,%s", c.LastCreatedAt.UTC().Format(time.RFC3339Nano), c.LastID)

	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor token. Decode failures surface as
// ErrInvalidCursor so handlers can distinguish them from generic errors.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	parts := strings.SplitN(string(raw), ",", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: malformed token", ErrInvalidCursor)
	}

	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp: %v", ErrInvalidCursor, err)
	}

	return &Cursor{LastCreatedAt: &ts, LastID: parts[1]}, nil
}
