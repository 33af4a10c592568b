// ABOUTME: This file implements the bounded ring buffer of per-article diagnostic snapshots
// ABOUTME: Entries are keyed by article id; re-recording an id promotes it to most recent
package metrics

import (
	"container/list"
	"sync"
	"time"
)

// DefaultDiagnosticsCapacity bounds the ring buffer.
const DefaultDiagnosticsCapacity = 200

// DefaultDiagnosticsLimit is the listing page size when none is requested.
const DefaultDiagnosticsLimit = 25

// DiagnosticEntry is one per-article snapshot kept for operational inspection.
type DiagnosticEntry struct {
	RecordedAt         time.Time `json:"recorded_at"`
	PublishedAt        time.Time `json:"published_at,omitempty"`
	ArticleID          string    `json:"article_id"`
	FeedID             string    `json:"feed_id"`
	FeedTitle          string    `json:"feed_title,omitempty"`
	ItemTitle          string    `json:"item_title,omitempty"`
	CanonicalURL       string    `json:"canonical_url,omitempty"`
	ChosenSource       string    `json:"chosen_source"`
	ArticleHTMLPreview string    `json:"article_html_preview"`
	RawDescriptionLen  int       `json:"raw_description_length"`
	BodyHTMLRawLen     int       `json:"body_html_raw_length"`
	ArticleHTMLLen     int       `json:"article_html_length"`
	HasBlockTags       bool      `json:"has_block_tags"`
	LooksEscapedHTML   bool      `json:"looks_escaped_html"`
	WeakContent        bool      `json:"weak_content"`
}

// Diagnostics is an insertion-ordered ring buffer keyed by article id.
type Diagnostics struct {
	byID     map[string]*list.Element
	order    *list.List // front = oldest, back = newest
	mu       sync.Mutex
	capacity int
}

// NewDiagnostics creates a buffer with the given capacity (<=0 uses default).
func NewDiagnostics(capacity int) *Diagnostics {
	if capacity <= 0 {
		capacity = DefaultDiagnosticsCapacity
	}

	return &Diagnostics{
		byID:     make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
	}
}

// Record stores or refreshes a snapshot. Re-recording an article id moves it
// to most-recent; the oldest entry is evicted when over capacity.
func (d *Diagnostics) Record(entry DiagnosticEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if elem, ok := d.byID[entry.ArticleID]; ok {
		elem.Value = entry
		d.order.MoveToBack(elem)
		return
	}

	d.byID[entry.ArticleID] = d.order.PushBack(entry)

	for d.order.Len() > d.capacity {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.byID, oldest.Value.(DiagnosticEntry).ArticleID)
	}
}

// List returns snapshots newest-first, optionally filtered by feed id.
// limit <= 0 uses the default page size; limit is capped at the capacity.
func (d *Diagnostics) List(feedID string, limit int) []DiagnosticEntry {
	if limit <= 0 {
		limit = DefaultDiagnosticsLimit
	}
	if limit > d.capacity {
		limit = d.capacity
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entries := make([]DiagnosticEntry, 0, limit)

	for elem := d.order.Back(); elem != nil && len(entries) < limit; elem = elem.Prev() {
		entry := elem.Value.(DiagnosticEntry)
		if feedID != "" && entry.FeedID != feedID {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

// Len reports the current number of buffered entries.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.order.Len()
}
