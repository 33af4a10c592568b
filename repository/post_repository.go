package repository

import (
	"context"
	"fmt"
	"log/slog"

	"linkpress/domain"
)

// PostRepository implementation.
type postRepository struct {
	db     DB
	logger *slog.Logger
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db DB, logger *slog.Logger) PostRepository {
	return &postRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the sibling post for a freshly created article.
func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (article_id, status, attempt_count)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(ctx, query, post.ArticleID, post.Status, post.AttemptCount)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to create post", "error", err, "article_id", post.ArticleID)
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// UpsertForArticle writes the full generation outcome for an article.
func (r *postRepository) UpsertForArticle(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (article_id, content, status, attempt_count, error_reason,
		                   prompt_base_hash, model_used, tokens_input, tokens_output, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (article_id) DO UPDATE SET
			content = EXCLUDED.content,
			status = EXCLUDED.status,
			attempt_count = EXCLUDED.attempt_count,
			error_reason = EXCLUDED.error_reason,
			prompt_base_hash = EXCLUDED.prompt_base_hash,
			model_used = EXCLUDED.model_used,
			tokens_input = EXCLUDED.tokens_input,
			tokens_output = EXCLUDED.tokens_output,
			generated_at = EXCLUDED.generated_at
	`

	_, err := r.db.Exec(ctx, query,
		post.ArticleID, nullableString(post.Content), post.Status, post.AttemptCount,
		nullableString(post.ErrorReason), nullableString(post.PromptBaseHash),
		nullableString(post.ModelUsed), post.TokensInput, post.TokensOutput, post.GeneratedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to upsert post", "error", err, "article_id", post.ArticleID)
		return fmt.Errorf("failed to upsert post: %w", err)
	}

	return nil
}

// FindPendingWithArticles returns PENDING posts joined with their articles,
// oldest first, for the generation worker.
func (r *postRepository) FindPendingWithArticles(ctx context.Context, limit int) ([]*domain.ArticleWithPost, error) {
	query := `
		SELECT a.id, a.feed_id, a.title, a.content_snippet, COALESCE(a.article_html, ''),
		       a.published_at, a.created_at,
		       p.status, p.attempt_count
		FROM posts p
		JOIN articles a ON a.id = p.article_id
		WHERE p.status = $1
		ORDER BY a.created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, domain.PostStatusPending, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find pending posts", "error", err)
		return nil, fmt.Errorf("failed to find pending posts: %w", err)
	}
	defer rows.Close()

	var results []*domain.ArticleWithPost

	for rows.Next() {
		item := &domain.ArticleWithPost{}
		if err := rows.Scan(
			&item.Article.ID, &item.Article.FeedID, &item.Article.Title, &item.Article.ContentSnippet,
			&item.Article.ArticleHTML, &item.Article.PublishedAt, &item.Article.CreatedAt,
			&item.Post.Status, &item.Post.AttemptCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pending post: %w", err)
		}
		item.Post.ArticleID = item.Article.ID
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending posts: %w", err)
	}

	return results, nil
}

// DeleteManyByArticleIDs removes the posts for the given articles.
func (r *postRepository) DeleteManyByArticleIDs(ctx context.Context, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx, `DELETE FROM posts WHERE article_id = ANY($1)`, articleIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to delete posts", "error", err, "count", len(articleIDs))
		return fmt.Errorf("failed to delete posts: %w", err)
	}

	return nil
}

// nullableString maps the empty string to NULL so partial unique indexes and
// COALESCE reads treat absent values consistently.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
