package repository

import (
	"context"
	"time"

	"linkpress/domain"
)

//go:generate mockgen -source=interfaces.go -destination=../test/mocks/repository_mocks.go -package=mocks

// FeedRepository handles feed data persistence.
type FeedRepository interface {
	Create(ctx context.Context, feed *domain.Feed) error
	FindAllByOwner(ctx context.Context, ownerKey string) ([]*domain.Feed, error)
	FindByID(ctx context.Context, feedID string) (*domain.Feed, error)
	UpdateLastFetchedAt(ctx context.Context, feedID string, fetchedAt time.Time) error
	UpdateTitle(ctx context.Context, feedID, title string) error
}

// ExistingArticle is the slice of a stored article the dedupe coordinator
// needs to apply the reprocess policy.
type ExistingArticle struct {
	ID          string
	DedupeKey   string
	ArticleHTML string
}

// ArticleRepository handles article data persistence.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	FindExistingDedupeKeys(ctx context.Context, feedID string, keys []string) (map[string]*ExistingArticle, error)
	UpdateArticleHTMLByID(ctx context.Context, articleID, articleHTML string) error
	FindRecentForOwner(ctx context.Context, ownerKey string, cursor *domain.Cursor, limit int) ([]*domain.ArticleWithPost, *domain.Cursor, error)
	FindIDsForCleanup(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
	DeleteManyByIDs(ctx context.Context, articleIDs []string) (int, error)
}

// PostRepository handles generation-attempt records.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	UpsertForArticle(ctx context.Context, post *domain.Post) error
	FindPendingWithArticles(ctx context.Context, limit int) ([]*domain.ArticleWithPost, error)
	DeleteManyByArticleIDs(ctx context.Context, articleIDs []string) error
}
