package service

import (
	"context"

	"linkpress/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_services.go -package=mocks

// RefreshService ingests new items for all feeds owned by a caller.
type RefreshService interface {
	RefreshOwnerFeeds(ctx context.Context, ownerKey string) ([]*domain.FeedRefreshSummary, error)
}

// FeedService manages feed registration and listing per owner.
type FeedService interface {
	RegisterFeed(ctx context.Context, ownerKey, url string) (*domain.Feed, error)
	ListFeeds(ctx context.Context, ownerKey string) ([]*domain.Feed, error)
}

// PostListResult is one page of articles with their generated posts.
type PostListResult struct {
	Items      []*domain.ArticleWithPost `json:"items"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}

// ListService serves paginated article/post listings.
type ListService interface {
	ListPosts(ctx context.Context, ownerKey, cursor string, limit int) (*PostListResult, error)
}

// CleanupResult reports how many rows a retention sweep removed.
type CleanupResult struct {
	ArticlesDeleted int64 `json:"articles_deleted"`
	PostsDeleted    int64 `json:"posts_deleted"`
}

// CleanupService deletes articles older than the retention horizon.
type CleanupService interface {
	Cleanup(ctx context.Context) (*CleanupResult, error)
}

// GenerationResult summarizes one pass of the post generation worker.
type GenerationResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// PostGeneratorService drains pending posts through the LLM driver.
type PostGeneratorService interface {
	GeneratePending(ctx context.Context) (*GenerationResult, error)
}
