package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpress/domain"
)

type listArticleRepo struct {
	fakeArticleRepo
	items     []*domain.ArticleWithPost
	next      *domain.Cursor
	gotCursor *domain.Cursor
	gotLimit  int
}

func (f *listArticleRepo) FindRecentForOwner(_ context.Context, _ string, cursor *domain.Cursor, limit int) ([]*domain.ArticleWithPost, *domain.Cursor, error) {
	f.gotCursor = cursor
	f.gotLimit = limit
	return f.items, f.next, nil
}

func TestListService_ListPosts(t *testing.T) {
	item := &domain.ArticleWithPost{Article: domain.Article{ID: "art-1"}}

	tests := map[string]struct {
		cursor    string
		limit     int
		next      *domain.Cursor
		wantLimit int
		wantNext  bool
		wantErrIs error
	}{
		"default limit": {
			limit:     0,
			wantLimit: defaultListLimit,
		},
		"limit capped": {
			limit:     10_000,
			wantLimit: maxListLimit,
		},
		"explicit limit": {
			limit:     5,
			wantLimit: 5,
		},
		"next cursor propagated": {
			limit:     5,
			wantLimit: 5,
			next:      &domain.Cursor{LastCreatedAt: timePtr(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)), LastID: "art-1"},
			wantNext:  true,
		},
		"invalid cursor": {
			cursor:    "%%%not-base64%%%",
			wantErrIs: domain.ErrInvalidCursor,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			articleRepo := &listArticleRepo{items: []*domain.ArticleWithPost{item}, next: tc.next}
			svc := NewListService(articleRepo, testLogger())

			page, err := svc.ListPosts(context.Background(), "owner-1", tc.cursor, tc.limit)
			if tc.wantErrIs != nil {
				assert.ErrorIs(t, err, tc.wantErrIs)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantLimit, articleRepo.gotLimit)
			assert.Len(t, page.Items, 1)

			if tc.wantNext {
				assert.NotEmpty(t, page.NextCursor)
				decoded, decodeErr := domain.DecodeCursor(page.NextCursor)
				require.NoError(t, decodeErr)
				assert.Equal(t, "art-1", decoded.LastID)
			} else {
				assert.Empty(t, page.NextCursor)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestListService_PassesDecodedCursor(t *testing.T) {
	cursor := domain.Cursor{LastCreatedAt: timePtr(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)), LastID: "art-9"}

	articleRepo := &listArticleRepo{}
	svc := NewListService(articleRepo, testLogger())

	_, err := svc.ListPosts(context.Background(), "owner-1", cursor.Encode(), 10)
	require.NoError(t, err)

	require.NotNil(t, articleRepo.gotCursor)
	assert.Equal(t, "art-9", articleRepo.gotCursor.LastID)
	assert.True(t, cursor.LastCreatedAt.Equal(*articleRepo.gotCursor.LastCreatedAt))
}
