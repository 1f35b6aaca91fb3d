package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// failingTier always errors, for exercising the driver's error tolerance
type failingTier struct{}

func (failingTier) Name() string { return "failing" }

func (failingTier) Fetch(ctx context.Context, db *gorm.DB, need int) ([]models.Post, error) {
	return nil, errors.New("tier unavailable")
}

func TestFetchCandidatesDedupe(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "fetcher_author")
	now := time.Now().UTC()

	// Recent, highly liked, and highly commented: every tier returns these
	for i := 0; i < 5; i++ {
		makePost(t, db, author, postSpec{
			Title:     "popular",
			Likes:     100 - i,
			Comments:  50 - i,
			CreatedAt: now.Add(-time.Duration(i+1) * time.Hour),
		})
	}

	// Asking for more than exists forces every fallback tier to run
	fetcher := NewFetcher(db, DefaultTiers())
	posts, err := fetcher.FetchCandidates(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, posts, 5)

	seen := make(map[string]struct{})
	for _, p := range posts {
		_, dup := seen[p.ID]
		assert.False(t, dup, "post %s appeared twice in the candidate pool", p.ID)
		seen[p.ID] = struct{}{}
	}
}

func TestFetchTierFallbackToOlderPosts(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "fallback_author")
	now := time.Now().UTC()

	// Everything is outside the recent window, so tier one contributes
	// nothing and the like-rank tier has to cover
	for i := 0; i < 3; i++ {
		makePost(t, db, author, postSpec{
			Title:     "old but liked",
			Likes:     10 + i,
			CreatedAt: now.Add(-30 * 24 * time.Hour),
		})
	}

	fetcher := NewFetcher(db, DefaultTiers())
	posts, err := fetcher.FetchCandidates(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}

func TestFetcherTierErrorIsNonFatal(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "partial_author")
	makePost(t, db, author, postSpec{
		Title:     "survivor",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	})

	fetcher := NewFetcher(db, []Tier{failingTier{}, latestTier{}})
	posts, err := fetcher.FetchCandidates(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestFetcherAllTiersFail(t *testing.T) {
	db := setupTestDB(t)

	fetcher := NewFetcher(db, []Tier{failingTier{}, failingTier{}})
	_, err := fetcher.FetchCandidates(context.Background(), 5)
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestFetcherEmptyDatasetIsNotAnError(t *testing.T) {
	db := setupTestDB(t)

	fetcher := NewFetcher(db, DefaultTiers())
	posts, err := fetcher.FetchCandidates(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetcherFirstSeenOrderingWins(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "order_author")
	now := time.Now().UTC()

	newest := makePost(t, db, author, postSpec{
		Title:     "newest",
		Likes:     1,
		CreatedAt: now.Add(-1 * time.Hour),
	})
	older := makePost(t, db, author, postSpec{
		Title:     "older but most liked",
		Likes:     999,
		CreatedAt: now.Add(-2 * time.Hour),
	})

	fetcher := NewFetcher(db, DefaultTiers())
	posts, err := fetcher.FetchCandidates(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// The recent tier saw both first, so its recency order sticks even
	// though the like-rank tier would order them the other way round
	assert.Equal(t, newest.ID, posts[0].ID)
	assert.Equal(t, older.ID, posts[1].ID)
}
