package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkpress/config"
	"linkpress/repository"
)

// cleanupBatchSize bounds one delete round so a large backlog is removed in
// several short transactions instead of one long one.
const cleanupBatchSize = 500

type cleanupService struct {
	articleRepo repository.ArticleRepository
	postRepo    repository.PostRepository
	logger      *slog.Logger
	cfg         config.CleanupConfig
	now         func() time.Time
}

func NewCleanupService(
	articleRepo repository.ArticleRepository,
	postRepo repository.PostRepository,
	cfg config.CleanupConfig,
	logger *slog.Logger,
) CleanupService {
	return &cleanupService{
		articleRepo: articleRepo,
		postRepo:    postRepo,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Cleanup deletes articles published before the retention horizon together
// with their generation records, in batches until none remain.
func (s *cleanupService) Cleanup(ctx context.Context) (*CleanupResult, error) {
	horizon := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	result := &CleanupResult{}

	for {
		ids, err := s.articleRepo.FindIDsForCleanup(ctx, horizon, cleanupBatchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to find articles for cleanup: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		if err := s.postRepo.DeleteManyByArticleIDs(ctx, ids); err != nil {
			return nil, fmt.Errorf("failed to delete generation records: %w", err)
		}
		result.PostsDeleted += int64(len(ids))

		deleted, err := s.articleRepo.DeleteManyByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to delete articles: %w", err)
		}
		result.ArticlesDeleted += int64(deleted)

		if len(ids) < cleanupBatchSize {
			break
		}
	}

	s.logger.InfoContext(ctx, "cleanup sweep finished",
		"articles_deleted", result.ArticlesDeleted,
		"posts_deleted", result.PostsDeleted,
		"retention_days", s.cfg.RetentionDays)
	return result, nil
}
