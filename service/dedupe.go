// ABOUTME: This file implements the dedupe and persistence coordinator for
// ABOUTME: assembled feed items, applying the configured reprocess policy.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkpress/domain"
	"linkpress/metrics"
	"linkpress/normalizer"
	"linkpress/repository"
	"linkpress/selector"
)

// Reprocess policies for items whose dedupe key already exists.
const (
	PolicyNever            = "never"
	PolicyIfEmpty          = "if-empty"
	PolicyAlways           = "always"
	PolicyIfEmptyOrChanged = "if-empty-or-changed"
)

const (
	// Stored and incoming bodies count as materially different only when
	// their normalized length diverges by more than this fraction or their
	// token overlap falls below similarityJaccardFloor.
	similarityLengthDelta  = 0.05
	similarityJaccardFloor = 0.90

	diagnosticPreviewChars = 240
	weakContentChars       = 120
)

// ArticleCandidate is one windowed, assembled feed item ready for persistence.
type ArticleCandidate struct {
	Item      *domain.NormalizedItem
	Selection domain.SelectionResult
	Assembly  domain.AssemblyResult
	Snippet   string
	Fallback  bool
}

// PersistResult counts the outcomes of one persistence batch.
type PersistResult struct {
	Created    int
	Updated    int
	Duplicates int
}

// Coordinator deduplicates assembled items against stored articles and
// persists the survivors together with their pending generation records.
type Coordinator struct {
	articleRepo repository.ArticleRepository
	postRepo    repository.PostRepository
	diagnostics *metrics.Diagnostics
	logger      *slog.Logger
	policy      string
	now         func() time.Time
}

func NewCoordinator(
	articleRepo repository.ArticleRepository,
	postRepo repository.PostRepository,
	diagnostics *metrics.Diagnostics,
	policy string,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		articleRepo: articleRepo,
		postRepo:    postRepo,
		diagnostics: diagnostics,
		logger:      logger,
		policy:      policy,
		now:         time.Now,
	}
}

// DedupeKey derives the stable identity of a feed item. GUID wins over link,
// link wins over the content hash fallback.
func DedupeKey(item *domain.NormalizedItem, snippet string) string {
	if item.GUID != "" {
		return "guid:" + item.GUID
	}
	if item.CanonicalURL != "" {
		return "link:" + item.CanonicalURL
	}
	raw := item.Title + "|" + snippet + "|" + item.PublishedAt.UTC().Format(time.RFC3339)
	return "hash:" + hashHex(raw)
}

// Persist runs the batch through dedupe and the reprocess policy. Items whose
// key is new become articles with a PENDING post; items whose key exists are
// updated or counted as duplicates depending on the policy.
func (c *Coordinator) Persist(ctx context.Context, feed *domain.Feed, candidates []*ArticleCandidate) (*PersistResult, error) {
	result := &PersistResult{}
	if len(candidates) == 0 {
		return result, nil
	}

	keys := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		keys = append(keys, DedupeKey(candidate.Item, candidate.Snippet))
	}

	existing, err := c.articleRepo.FindExistingDedupeKeys(ctx, feed.ID, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing dedupe keys: %w", err)
	}

	seenInBatch := make(map[string]bool, len(candidates))
	for i, candidate := range candidates {
		key := keys[i]
		if seenInBatch[key] {
			result.Duplicates++
			metrics.RecordItemSkipped(c.policy)
			continue
		}
		seenInBatch[key] = true

		stored, found := existing[key]
		if !found {
			articleID, createErr := c.createArticle(ctx, feed, candidate, key)
			if createErr != nil {
				if repository.IsUniqueViolation(createErr) {
					result.Duplicates++
					metrics.RecordItemSkipped(c.policy)
					continue
				}
				return nil, createErr
			}
			result.Created++
			c.recordDiagnostics(feed, candidate, articleID)
			continue
		}

		if c.shouldReprocess(stored, candidate) {
			if updateErr := c.updateArticle(ctx, stored, candidate); updateErr != nil {
				return nil, updateErr
			}
			result.Updated++
			c.recordDiagnostics(feed, candidate, stored.ID)
			continue
		}

		result.Duplicates++
		metrics.RecordItemSkipped(c.policy)
		c.recordDiagnostics(feed, candidate, stored.ID)
	}

	return result, nil
}

func (c *Coordinator) createArticle(ctx context.Context, feed *domain.Feed, candidate *ArticleCandidate, key string) (string, error) {
	now := c.now()
	article := &domain.Article{
		ID:             uuid.NewString(),
		FeedID:         feed.ID,
		Title:          candidate.Item.Title,
		ContentSnippet: candidate.Snippet,
		ArticleHTML:    candidate.Assembly.ArticleHTML,
		GUID:           candidate.Item.GUID,
		Link:           candidate.Item.CanonicalURL,
		DedupeKey:      key,
		PublishedAt:    candidate.Item.PublishedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.articleRepo.Create(ctx, article); err != nil {
		return "", err
	}

	post := &domain.Post{
		ArticleID: article.ID,
		Status:    domain.PostStatusPending,
	}
	if err := c.postRepo.Create(ctx, post); err != nil {
		return "", fmt.Errorf("failed to create generation record for article %s: %w", article.ID, err)
	}
	return article.ID, nil
}

func (c *Coordinator) updateArticle(ctx context.Context, stored *repository.ExistingArticle, candidate *ArticleCandidate) error {
	if err := c.articleRepo.UpdateArticleHTMLByID(ctx, stored.ID, candidate.Assembly.ArticleHTML); err != nil {
		return fmt.Errorf("failed to update article %s: %w", stored.ID, err)
	}
	// A refreshed body invalidates any previous generation.
	post := &domain.Post{
		ArticleID: stored.ID,
		Status:    domain.PostStatusPending,
	}
	if err := c.postRepo.UpsertForArticle(ctx, post); err != nil {
		return fmt.Errorf("failed to reset generation record for article %s: %w", stored.ID, err)
	}
	return nil
}

func (c *Coordinator) shouldReprocess(stored *repository.ExistingArticle, candidate *ArticleCandidate) bool {
	switch c.policy {
	case PolicyAlways:
		return true
	case PolicyIfEmpty:
		return strings.TrimSpace(stored.ArticleHTML) == ""
	case PolicyIfEmptyOrChanged:
		if strings.TrimSpace(stored.ArticleHTML) == "" {
			return true
		}
		return substantiallyChanged(stored.ArticleHTML, candidate.Assembly.ArticleHTML)
	default:
		return false
	}
}

// substantiallyChanged compares normalized text content, not markup. Equal
// hashes short-circuit; a hash mismatch alone is not enough, the bodies must
// also diverge in length or token overlap.
func substantiallyChanged(oldHTML, newHTML string) bool {
	oldNorm := normalizeContent(oldHTML)
	newNorm := normalizeContent(newHTML)
	if hashHex(oldNorm) == hashHex(newNorm) {
		return false
	}

	longest := max(len(oldNorm), len(newNorm))
	if longest == 0 {
		return false
	}
	delta := float64(abs(len(oldNorm)-len(newNorm))) / float64(longest)
	if delta > similarityLengthDelta {
		return true
	}
	return tokenJaccard(oldNorm, newNorm) < similarityJaccardFloor
}

func normalizeContent(html string) string {
	return strings.ToLower(normalizer.StripTags(html))
}

func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}

	intersection := 0
	for token := range setA {
		if setB[token] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(s) {
		set[token] = true
	}
	return set
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (c *Coordinator) recordDiagnostics(feed *domain.Feed, candidate *ArticleCandidate, articleID string) {
	rawDescription := candidate.Item.Candidates.DescriptionOrSummary
	bodyRaw := candidate.Selection.BodyHTML
	articleHTML := candidate.Assembly.ArticleHTML

	c.diagnostics.Record(metrics.DiagnosticEntry{
		RecordedAt:         c.now(),
		PublishedAt:        candidate.Item.PublishedAt,
		ArticleID:          articleID,
		FeedID:             feed.ID,
		FeedTitle:          feed.Title,
		ItemTitle:          candidate.Item.Title,
		CanonicalURL:       candidate.Item.CanonicalURL,
		ChosenSource:       string(candidate.Selection.ChosenSource),
		ArticleHTMLPreview: previewOf(articleHTML),
		RawDescriptionLen:  len(rawDescription),
		BodyHTMLRawLen:     len(bodyRaw),
		ArticleHTMLLen:     len(articleHTML),
		HasBlockTags:       selector.HasBlockTags(bodyRaw),
		LooksEscapedHTML:   looksEscapedHTML(bodyRaw),
		WeakContent:        isWeakContent(bodyRaw),
	})
}

func previewOf(html string) string {
	runes := []rune(html)
	if len(runes) <= diagnosticPreviewChars {
		return html
	}
	return string(runes[:diagnosticPreviewChars])
}

// looksEscapedHTML flags bodies where markup arrived entity-encoded, which
// usually means a feed double-escaped its content.
func looksEscapedHTML(raw string) bool {
	return !strings.Contains(raw, "<") && strings.Contains(raw, "&lt;")
}

func isWeakContent(raw string) bool {
	if selector.HasBlockTags(raw) {
		return false
	}
	return len(normalizer.StripTags(raw)) < weakContentChars
}
