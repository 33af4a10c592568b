// ABOUTME: This file tests dedupe key derivation, the reprocess policies and
// ABOUTME: the similarity heuristic of the persistence coordinator
package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpress/domain"
	"linkpress/metrics"
	"linkpress/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors in tests
	}))
}

type fakeArticleRepo struct {
	existing  map[string]*repository.ExistingArticle
	created   []*domain.Article
	updated   map[string]string
	createErr error
}

func (f *fakeArticleRepo) Create(_ context.Context, article *domain.Article) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, article)
	return nil
}

func (f *fakeArticleRepo) FindExistingDedupeKeys(_ context.Context, _ string, keys []string) (map[string]*repository.ExistingArticle, error) {
	found := make(map[string]*repository.ExistingArticle)
	for _, key := range keys {
		if stored, ok := f.existing[key]; ok {
			found[key] = stored
		}
	}
	return found, nil
}

func (f *fakeArticleRepo) UpdateArticleHTMLByID(_ context.Context, articleID, articleHTML string) error {
	if f.updated == nil {
		f.updated = make(map[string]string)
	}
	f.updated[articleID] = articleHTML
	return nil
}

func (f *fakeArticleRepo) FindRecentForOwner(_ context.Context, _ string, _ *domain.Cursor, _ int) ([]*domain.ArticleWithPost, *domain.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeArticleRepo) FindIDsForCleanup(_ context.Context, _ time.Time, _ int) ([]string, error) {
	return nil, nil
}

func (f *fakeArticleRepo) DeleteManyByIDs(_ context.Context, _ []string) (int, error) {
	return 0, nil
}

type fakePostRepo struct {
	created  []*domain.Post
	upserted []*domain.Post
	pending  []*domain.ArticleWithPost
}

func (f *fakePostRepo) Create(_ context.Context, post *domain.Post) error {
	f.created = append(f.created, post)
	return nil
}

func (f *fakePostRepo) UpsertForArticle(_ context.Context, post *domain.Post) error {
	f.upserted = append(f.upserted, post)
	return nil
}

func (f *fakePostRepo) FindPendingWithArticles(_ context.Context, limit int) ([]*domain.ArticleWithPost, error) {
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakePostRepo) DeleteManyByArticleIDs(_ context.Context, _ []string) error {
	return nil
}

func newTestCandidate(guid, link, title, html string) *ArticleCandidate {
	return &ArticleCandidate{
		Item: &domain.NormalizedItem{
			Title:        title,
			CanonicalURL: link,
			GUID:         guid,
			PublishedAt:  time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		},
		Selection: domain.SelectionResult{
			ChosenSource: domain.SourceDescription,
			BodyHTML:     html,
		},
		Assembly: domain.AssemblyResult{ArticleHTML: html},
		Snippet:  "snippet",
	}
}

func TestDedupeKey(t *testing.T) {
	published := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		item       *domain.NormalizedItem
		snippet    string
		wantPrefix string
		wantExact  string
	}{
		"guid wins over link": {
			item: &domain.NormalizedItem{
				GUID:         "tag:example.com,2026:1",
				CanonicalURL: "https://example.com/a",
				PublishedAt:  published,
			},
			wantExact: "guid:tag:example.com,2026:1",
		},
		"link when guid missing": {
			item: &domain.NormalizedItem{
				CanonicalURL: "https://example.com/a",
				PublishedAt:  published,
			},
			wantExact: "link:https://example.com/a",
		},
		"hash fallback when both missing": {
			item: &domain.NormalizedItem{
				Title:       "Some title",
				PublishedAt: published,
			},
			snippet:    "lead text",
			wantPrefix: "hash:",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			key := DedupeKey(tc.item, tc.snippet)
			if tc.wantExact != "" {
				assert.Equal(t, tc.wantExact, key)
			} else {
				assert.True(t, strings.HasPrefix(key, tc.wantPrefix))
			}
		})
	}
}

func TestDedupeKey_HashIsStable(t *testing.T) {
	item := &domain.NormalizedItem{
		Title:       "Stable",
		PublishedAt: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	}

	first := DedupeKey(item, "snippet")
	second := DedupeKey(item, "snippet")
	assert.Equal(t, first, second)

	changed := DedupeKey(item, "different snippet")
	assert.NotEqual(t, first, changed)
}

func TestCoordinator_Persist_CreatesNewArticles(t *testing.T) {
	articleRepo := &fakeArticleRepo{}
	postRepo := &fakePostRepo{}
	coordinator := NewCoordinator(articleRepo, postRepo, metrics.NewDiagnostics(10), PolicyNever, testLogger())

	feed := &domain.Feed{ID: "feed-1", Title: "Example"}
	candidates := []*ArticleCandidate{
		newTestCandidate("guid-1", "https://example.com/a", "First", "<p>first body</p>"),
		newTestCandidate("guid-2", "https://example.com/b", "Second", "<p>second body</p>"),
	}

	result, err := coordinator.Persist(context.Background(), feed, candidates)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Duplicates)
	require.Len(t, articleRepo.created, 2)
	assert.Equal(t, "guid:guid-1", articleRepo.created[0].DedupeKey)
	assert.Equal(t, "feed-1", articleRepo.created[0].FeedID)

	// Every created article gets a pending generation record.
	require.Len(t, postRepo.created, 2)
	assert.Equal(t, domain.PostStatusPending, postRepo.created[0].Status)
}

func TestCoordinator_Persist_BatchDuplicates(t *testing.T) {
	articleRepo := &fakeArticleRepo{}
	coordinator := NewCoordinator(articleRepo, &fakePostRepo{}, metrics.NewDiagnostics(10), PolicyNever, testLogger())

	feed := &domain.Feed{ID: "feed-1"}
	candidates := []*ArticleCandidate{
		newTestCandidate("same-guid", "", "First", "<p>a</p>"),
		newTestCandidate("same-guid", "", "First again", "<p>b</p>"),
	}

	result, err := coordinator.Persist(context.Background(), feed, candidates)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Duplicates)
	assert.Len(t, articleRepo.created, 1)
}

func TestCoordinator_Persist_UniqueViolationBecomesDuplicate(t *testing.T) {
	articleRepo := &fakeArticleRepo{
		createErr: &pgconn.PgError{Code: "23505"},
	}
	coordinator := NewCoordinator(articleRepo, &fakePostRepo{}, metrics.NewDiagnostics(10), PolicyNever, testLogger())

	result, err := coordinator.Persist(context.Background(), &domain.Feed{ID: "feed-1"},
		[]*ArticleCandidate{newTestCandidate("g", "", "Racing", "<p>body</p>")})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Duplicates)
}

func TestCoordinator_Persist_ReprocessPolicies(t *testing.T) {
	const storedHTML = "<p>This is the original body text of the stored article.</p>"

	tests := map[string]struct {
		policy         string
		storedHTML     string
		incomingHTML   string
		wantUpdated    int
		wantDuplicates int
	}{
		"never skips identical": {
			policy:         PolicyNever,
			storedHTML:     storedHTML,
			incomingHTML:   storedHTML,
			wantDuplicates: 1,
		},
		"never skips even changed": {
			policy:         PolicyNever,
			storedHTML:     storedHTML,
			incomingHTML:   "<p>A completely different body with new wording throughout.</p>",
			wantDuplicates: 1,
		},
		"always updates identical": {
			policy:       PolicyAlways,
			storedHTML:   storedHTML,
			incomingHTML: storedHTML,
			wantUpdated:  1,
		},
		"if-empty updates empty stored body": {
			policy:       PolicyIfEmpty,
			storedHTML:   "   ",
			incomingHTML: storedHTML,
			wantUpdated:  1,
		},
		"if-empty skips populated stored body": {
			policy:         PolicyIfEmpty,
			storedHTML:     storedHTML,
			incomingHTML:   "<p>A completely different body with new wording throughout.</p>",
			wantDuplicates: 1,
		},
		"if-empty-or-changed updates empty": {
			policy:       PolicyIfEmptyOrChanged,
			storedHTML:   "",
			incomingHTML: storedHTML,
			wantUpdated:  1,
		},
		"if-empty-or-changed skips same content in different markup": {
			policy:         PolicyIfEmptyOrChanged,
			storedHTML:     storedHTML,
			incomingHTML:   "<div>This is the original body text of the stored article.</div>",
			wantDuplicates: 1,
		},
		"if-empty-or-changed updates substantially changed": {
			policy:       PolicyIfEmptyOrChanged,
			storedHTML:   storedHTML,
			incomingHTML: "<p>An entirely rewritten article body that shares almost no words with what was stored before, and is much longer than the original body so both heuristics fire.</p>",
			wantUpdated:  1,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			candidate := newTestCandidate("g", "", "Title", tc.incomingHTML)
			key := DedupeKey(candidate.Item, candidate.Snippet)

			articleRepo := &fakeArticleRepo{
				existing: map[string]*repository.ExistingArticle{
					key: {ID: "art-1", DedupeKey: key, ArticleHTML: tc.storedHTML},
				},
			}
			postRepo := &fakePostRepo{}
			coordinator := NewCoordinator(articleRepo, postRepo, metrics.NewDiagnostics(10), tc.policy, testLogger())

			result, err := coordinator.Persist(context.Background(), &domain.Feed{ID: "feed-1"},
				[]*ArticleCandidate{candidate})
			require.NoError(t, err)

			assert.Equal(t, 0, result.Created)
			assert.Equal(t, tc.wantUpdated, result.Updated)
			assert.Equal(t, tc.wantDuplicates, result.Duplicates)

			if tc.wantUpdated > 0 {
				assert.Equal(t, tc.incomingHTML, articleRepo.updated["art-1"])
				// The refreshed body resets the generation record.
				require.Len(t, postRepo.upserted, 1)
				assert.Equal(t, domain.PostStatusPending, postRepo.upserted[0].Status)
			}
		})
	}
}

func TestSubstantiallyChanged(t *testing.T) {
	base := "<p>The quick brown fox jumps over the lazy dog near the river bank every single morning.</p>"

	tests := map[string]struct {
		oldHTML string
		newHTML string
		want    bool
	}{
		"identical markup": {
			oldHTML: base,
			newHTML: base,
			want:    false,
		},
		"markup-only change": {
			oldHTML: base,
			newHTML: "<div>The quick brown fox jumps over the lazy dog near the river bank every single morning.</div>",
			want:    false,
		},
		"case-only change": {
			oldHTML: base,
			newHTML: "<p>THE QUICK BROWN FOX jumps over the lazy dog near the river bank every single morning.</p>",
			want:    false,
		},
		"large length delta": {
			oldHTML: base,
			newHTML: base + "<p>Plus a whole additional paragraph of fresh reporting that extends the piece well beyond its previous length.</p>",
			want:    true,
		},
		"rewritten wording": {
			oldHTML: base,
			newHTML: "<p>A slow orange cat crawls under an energetic puppy beside a stream most weekday evenings.</p>",
			want:    true,
		},
		"both empty": {
			oldHTML: "<p></p>",
			newHTML: "<div></div>",
			want:    false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, substantiallyChanged(tc.oldHTML, tc.newHTML))
		})
	}
}

func TestTokenJaccard(t *testing.T) {
	assert.Equal(t, 1.0, tokenJaccard("a b c", "c b a"))
	assert.Equal(t, 0.0, tokenJaccard("a b", "c d"))
	assert.Equal(t, 1.0, tokenJaccard("", ""))
	assert.Less(t, tokenJaccard("a b c d", "a b c e"), 1.0)
}

func TestCoordinator_Persist_RecordsDiagnostics(t *testing.T) {
	diagnostics := metrics.NewDiagnostics(10)
	coordinator := NewCoordinator(&fakeArticleRepo{}, &fakePostRepo{}, diagnostics, PolicyNever, testLogger())

	feed := &domain.Feed{ID: "feed-1", Title: "Example Feed"}
	_, err := coordinator.Persist(context.Background(), feed,
		[]*ArticleCandidate{newTestCandidate("g", "https://example.com/a", "Entry", "<p>body text</p>")})
	require.NoError(t, err)

	entries := diagnostics.List("feed-1", 10)
	require.Len(t, entries, 1)
	assert.Equal(t, "Example Feed", entries[0].FeedTitle)
	assert.Equal(t, "Entry", entries[0].ItemTitle)
	assert.NotEmpty(t, entries[0].ArticleID)
	assert.True(t, entries[0].HasBlockTags)
}
