package feed

import (
	"context"
	"testing"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichAttachesRelatedData(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "enrich_author")
	now := time.Now().UTC()

	post := makePost(t, db, author, postSpec{
		Title:     "enriched",
		CreatedAt: now.Add(-time.Hour),
		Tags:      []string{"Physics", "jee"},
	})
	addViews(t, db, post.ID, 3)

	enricher := NewEnricher(db)
	candidates := enricher.Enrich(context.Background(), []models.Post{post})
	require.Len(t, candidates, 1)

	c := candidates[0]
	require.NotNil(t, c.Author)
	assert.Equal(t, author.ID, c.Author.ID)
	assert.ElementsMatch(t, []string{"physics", "jee"}, c.Tags)
	assert.Equal(t, int64(3), c.ViewCount)
	assert.Equal(t, int64(3), c.Engagement())
}

func TestEnrichMissingAuthorDegradesToNil(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	// Author row never existed (e.g., account deleted out from under the post)
	orphan := models.Post{
		UserID:    "00000000-0000-0000-0000-000000000000",
		Title:     "orphaned",
		CreatedAt: now.Add(-time.Hour),
	}
	require.NoError(t, db.Create(&orphan).Error)

	enricher := NewEnricher(db)
	candidates := enricher.Enrich(context.Background(), []models.Post{orphan})
	require.Len(t, candidates, 1)

	assert.Nil(t, candidates[0].Author)
	assert.NotNil(t, candidates[0].Tags)
	assert.Empty(t, candidates[0].Tags)
	assert.Zero(t, candidates[0].ViewCount)
}

func TestEnrichPreservesInputOrder(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "order_enrich_author")
	now := time.Now().UTC()

	posts := make([]models.Post, 0, 4)
	for i := 0; i < 4; i++ {
		posts = append(posts, makePost(t, db, author, postSpec{
			Title:     "ordered",
			CreatedAt: now.Add(-time.Duration(i+1) * time.Hour),
		}))
	}

	enricher := NewEnricher(db)
	candidates := enricher.Enrich(context.Background(), posts)
	require.Len(t, candidates, 4)
	assert.Equal(t, postIDs(posts), candidateIDs(candidates))
}

func TestEnrichEmptyInput(t *testing.T) {
	db := setupTestDB(t)

	enricher := NewEnricher(db)
	candidates := enricher.Enrich(context.Background(), nil)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}
