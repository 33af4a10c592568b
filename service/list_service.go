package service

import (
	"context"
	"fmt"
	"log/slog"

	"linkpress/domain"
	"linkpress/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type listService struct {
	articleRepo repository.ArticleRepository
	logger      *slog.Logger
}

func NewListService(articleRepo repository.ArticleRepository, logger *slog.Logger) ListService {
	return &listService{
		articleRepo: articleRepo,
		logger:      logger,
	}
}

// ListPosts returns one newest-first page of an owner's articles with their
// generation records. An empty cursor starts from the newest article.
func (s *listService) ListPosts(ctx context.Context, ownerKey, cursorToken string, limit int) (*PostListResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var cursor *domain.Cursor
	if cursorToken != "" {
		decoded, err := domain.DecodeCursor(cursorToken)
		if err != nil {
			return nil, err
		}
		cursor = decoded
	}

	items, next, err := s.articleRepo.FindRecentForOwner(ctx, ownerKey, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	result := &PostListResult{Items: items}
	if next != nil {
		result.NextCursor = next.Encode()
	}
	return result, nil
}
