// ABOUTME: This file implements the background worker that turns PENDING
// ABOUTME: generation records into posts via the LLM driver, with retries.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkpress/config"
	"linkpress/domain"
	"linkpress/driver/llm"
	"linkpress/repository"
	"linkpress/retry"
)

// PostGenerator abstracts the LLM driver so the worker can be tested without
// a live model endpoint.
type PostGenerator interface {
	Generate(ctx context.Context, article *domain.Article) (*llm.GeneratedPost, error)
}

type postGeneratorService struct {
	postRepo  repository.PostRepository
	generator PostGenerator
	retrier   *retry.Retrier
	logger    *slog.Logger
	cfg       config.GeneratorConfig
	now       func() time.Time
}

func NewPostGeneratorService(
	postRepo repository.PostRepository,
	generator PostGenerator,
	retrier *retry.Retrier,
	cfg config.GeneratorConfig,
	logger *slog.Logger,
) PostGeneratorService {
	return &postGeneratorService{
		postRepo:  postRepo,
		generator: generator,
		retrier:   retrier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// GeneratePending drains one batch of PENDING records, oldest first. A failed
// generation marks its record FAILED and does not stop the batch.
func (s *postGeneratorService) GeneratePending(ctx context.Context) (*GenerationResult, error) {
	pending, err := s.postRepo.FindPendingWithArticles(ctx, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending generation records: %w", err)
	}

	result := &GenerationResult{}
	for _, pair := range pending {
		result.Processed++
		if err := s.generateOne(ctx, pair); err != nil {
			result.Failed++
			s.logger.ErrorContext(ctx, "post generation failed",
				"article_id", pair.Article.ID, "error", err)
			continue
		}
		result.Succeeded++
	}

	if result.Processed > 0 {
		s.logger.InfoContext(ctx, "generation batch finished",
			"processed", result.Processed,
			"succeeded", result.Succeeded,
			"failed", result.Failed)
	}
	return result, nil
}

func (s *postGeneratorService) generateOne(ctx context.Context, pair *domain.ArticleWithPost) error {
	var generated *llm.GeneratedPost
	genErr := s.retrier.Do(ctx, func() error {
		var err error
		generated, err = s.generator.Generate(ctx, &pair.Article)
		return err
	})

	attempt := pair.Post.AttemptCount + 1
	if genErr != nil {
		failed := &domain.Post{
			ArticleID:    pair.Article.ID,
			Status:       domain.PostStatusFailed,
			ErrorReason:  genErr.Error(),
			AttemptCount: attempt,
		}
		if err := s.postRepo.UpsertForArticle(ctx, failed); err != nil {
			return fmt.Errorf("failed to record generation failure: %w", err)
		}
		return genErr
	}

	generatedAt := s.now()
	succeeded := &domain.Post{
		ArticleID:      pair.Article.ID,
		Content:        generated.Content,
		Status:         domain.PostStatusSuccess,
		GeneratedAt:    &generatedAt,
		PromptBaseHash: generated.PromptBaseHash,
		ModelUsed:      generated.ModelUsed,
		AttemptCount:   attempt,
		TokensInput:    generated.TokensInput,
		TokensOutput:   generated.TokensOutput,
	}
	if err := s.postRepo.UpsertForArticle(ctx, succeeded); err != nil {
		return fmt.Errorf("failed to record generated post: %w", err)
	}
	return nil
}

// RunGeneratorLoop drives GeneratePending on a fixed interval until the
// context is cancelled. Intended to run in its own goroutine from main.
func RunGeneratorLoop(ctx context.Context, svc PostGeneratorService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "generator loop stopped")
			return
		case <-ticker.C:
			if _, err := svc.GeneratePending(ctx); err != nil {
				logger.ErrorContext(ctx, "generation batch failed", "error", err)
			}
		}
	}
}
