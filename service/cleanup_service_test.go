package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpress/config"
)

type cleanupArticleRepo struct {
	fakeArticleRepo
	batches     [][]string
	deletedIDs  []string
	findHorizon time.Time
}

func (f *cleanupArticleRepo) FindIDsForCleanup(_ context.Context, olderThan time.Time, limit int) ([]string, error) {
	f.findHorizon = olderThan
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	if len(batch) > limit {
		batch = batch[:limit]
	}
	return batch, nil
}

func (f *cleanupArticleRepo) DeleteManyByIDs(_ context.Context, articleIDs []string) (int, error) {
	f.deletedIDs = append(f.deletedIDs, articleIDs...)
	return len(articleIDs), nil
}

func TestCleanupService_Cleanup(t *testing.T) {
	tests := map[string]struct {
		batches      [][]string
		wantArticles int64
	}{
		"nothing to delete": {
			batches:      nil,
			wantArticles: 0,
		},
		"single batch": {
			batches:      [][]string{{"a", "b", "c"}},
			wantArticles: 3,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			articleRepo := &cleanupArticleRepo{batches: tc.batches}
			postRepo := &fakePostRepo{}
			svc := NewCleanupService(articleRepo, postRepo, config.CleanupConfig{RetentionDays: 30}, testLogger())

			result, err := svc.Cleanup(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tc.wantArticles, result.ArticlesDeleted)
			assert.Equal(t, tc.wantArticles, result.PostsDeleted)
		})
	}
}

func TestCleanupService_UsesRetentionHorizon(t *testing.T) {
	articleRepo := &cleanupArticleRepo{}
	svc := NewCleanupService(articleRepo, &fakePostRepo{}, config.CleanupConfig{RetentionDays: 30}, testLogger()).(*cleanupService)

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(0, 0, -30), articleRepo.findHorizon)
}
