package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkpress/domain"
)

// ArticleRepository implementation.
type articleRepository struct {
	db     DB
	logger *slog.Logger
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db DB, logger *slog.Logger) ArticleRepository {
	return &articleRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new article. Unique-violation errors propagate unchanged
// so the caller can downgrade them to duplicates.
func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	query := `
		INSERT INTO articles (id, feed_id, title, content_snippet, article_html,
		                      published_at, guid, link, dedupe_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		article.ID, article.FeedID, article.Title, article.ContentSnippet, article.ArticleHTML,
		article.PublishedAt, nullableString(article.GUID), nullableString(article.Link), article.DedupeKey,
		article.CreatedAt, article.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		r.logger.ErrorContext(ctx, "failed to create article", "error", err, "dedupe_key", article.DedupeKey)
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

// FindExistingDedupeKeys returns the stored articles matching any of the
// given dedupe keys for this feed, keyed by dedupe key.
func (r *articleRepository) FindExistingDedupeKeys(ctx context.Context, feedID string, keys []string) (map[string]*ExistingArticle, error) {
	existing := make(map[string]*ExistingArticle)

	if len(keys) == 0 {
		return existing, nil
	}

	query := `
		SELECT id, dedupe_key, COALESCE(article_html, '')
		FROM articles
		WHERE feed_id = $1 AND dedupe_key = ANY($2)
	`

	rows, err := r.db.Query(ctx, query, feedID, keys)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find existing dedupe keys", "error", err, "feed_id", feedID)
		return nil, fmt.Errorf("failed to find existing dedupe keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		article := &ExistingArticle{}
		if err := rows.Scan(&article.ID, &article.DedupeKey, &article.ArticleHTML); err != nil {
			return nil, fmt.Errorf("failed to scan existing article: %w", err)
		}
		existing[article.DedupeKey] = article
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing articles: %w", err)
	}

	return existing, nil
}

// UpdateArticleHTMLByID overwrites the stored HTML under the reprocess policy.
func (r *articleRepository) UpdateArticleHTMLByID(ctx context.Context, articleID, articleHTML string) error {
	query := `UPDATE articles SET article_html = $2, updated_at = now() WHERE id = $1`

	_, err := r.db.Exec(ctx, query, articleID, articleHTML)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to update article html", "error", err, "article_id", articleID)
		return fmt.Errorf("failed to update article html: %w", err)
	}

	return nil
}

// FindRecentForOwner lists the owner's articles with posts, newest first,
// using keyset pagination over (created_at, id).
func (r *articleRepository) FindRecentForOwner(ctx context.Context, ownerKey string, cursor *domain.Cursor, limit int) ([]*domain.ArticleWithPost, *domain.Cursor, error) {
	query := `
		SELECT a.id, a.feed_id, a.title, a.content_snippet, COALESCE(a.article_html, ''),
		       a.published_at, COALESCE(a.guid, ''), COALESCE(a.link, ''), a.dedupe_key,
		       a.created_at, a.updated_at,
		       p.status, COALESCE(p.content, ''), p.attempt_count, COALESCE(p.error_reason, ''),
		       COALESCE(p.model_used, ''), p.generated_at
		FROM articles a
		JOIN posts p ON p.article_id = a.id
		JOIN feeds f ON f.id = a.feed_id
		WHERE f.owner_key = $1
		  AND ($2::timestamptz IS NULL OR (a.created_at, a.id) < ($2, $3::uuid))
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $4
	`

	// Both cursor parameters must be NULL on the first page: the id column
	// is a uuid, and an empty string cannot pass through the uuid codec.
	var lastCreatedAt *time.Time
	var lastID any

	if cursor != nil {
		lastCreatedAt = cursor.LastCreatedAt
		lastID = cursor.LastID
	}

	rows, err := r.db.Query(ctx, query, ownerKey, lastCreatedAt, lastID, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list articles", "error", err)
		return nil, nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var results []*domain.ArticleWithPost

	for rows.Next() {
		item := &domain.ArticleWithPost{}
		if err := rows.Scan(
			&item.Article.ID, &item.Article.FeedID, &item.Article.Title, &item.Article.ContentSnippet,
			&item.Article.ArticleHTML, &item.Article.PublishedAt, &item.Article.GUID, &item.Article.Link,
			&item.Article.DedupeKey, &item.Article.CreatedAt, &item.Article.UpdatedAt,
			&item.Post.Status, &item.Post.Content, &item.Post.AttemptCount, &item.Post.ErrorReason,
			&item.Post.ModelUsed, &item.Post.GeneratedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan article: %w", err)
		}
		item.Post.ArticleID = item.Article.ID
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	var next *domain.Cursor
	if len(results) == limit && limit > 0 {
		last := results[len(results)-1]
		createdAt := last.Article.CreatedAt
		next = &domain.Cursor{LastCreatedAt: &createdAt, LastID: last.Article.ID}
	}

	return results, next, nil
}

// FindIDsForCleanup returns article ids older than the retention boundary.
func (r *articleRepository) FindIDsForCleanup(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM articles
		WHERE created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find cleanup candidates: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cleanup id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cleanup ids: %w", err)
	}

	return ids, nil
}

// DeleteManyByIDs removes the given articles, returning the deleted count.
func (r *articleRepository) DeleteManyByIDs(ctx context.Context, articleIDs []string) (int, error) {
	if len(articleIDs) == 0 {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM articles WHERE id = ANY($1)`, articleIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to delete articles", "error", err, "count", len(articleIDs))
		return 0, fmt.Errorf("failed to delete articles: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
