package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorPagesNoGapNoOverlap(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "pager_author")
	now := time.Now().UTC().Truncate(time.Second)

	// 25 posts; five of them share a creation timestamp so the identifier
	// tie-break gets exercised
	for i := 0; i < 25; i++ {
		createdAt := now.Add(-time.Duration(i) * time.Minute)
		if i >= 10 && i < 15 {
			createdAt = now.Add(-10 * time.Minute)
		}
		makePost(t, db, author, postSpec{
			Title:     fmt.Sprintf("post %02d", i),
			CreatedAt: createdAt,
		})
	}

	pager := NewCursorPager(db, NewEnricher(db), 10)
	ctx := context.Background()

	seen := make(map[string]struct{})
	var sizes []int
	var ordered []Candidate

	for pager.HasNextPage() {
		page, err := pager.FetchNextPage(ctx, FilterState{})
		require.NoError(t, err)
		if len(page.Items) == 0 && !page.HasNext {
			break
		}
		sizes = append(sizes, len(page.Items))
		for _, c := range page.Items {
			_, dup := seen[c.Post.ID]
			assert.False(t, dup, "post %s served on more than one page", c.Post.ID)
			seen[c.Post.ID] = struct{}{}
		}
		ordered = append(ordered, page.Items...)
	}

	assert.Equal(t, []int{10, 10, 5}, sizes)
	assert.Len(t, seen, 25, "every post must be served exactly once")

	// Total order: created_at descending, id descending on ties
	for i := 0; i < len(ordered)-1; i++ {
		a, b := ordered[i].Post, ordered[i+1].Post
		if a.CreatedAt.Equal(b.CreatedAt) {
			assert.Greater(t, a.ID, b.ID)
		} else {
			assert.True(t, a.CreatedAt.After(b.CreatedAt))
		}
	}
}

func TestBoundedModeCap(t *testing.T) {
	now := time.Now().UTC()

	candidates := make([]Candidate, 0, 50)
	for i := 0; i < 50; i++ {
		candidates = append(candidates, taggedCandidate(fmt.Sprintf("p%02d", i), now))
	}

	bounded := BoundedPage(candidates, 10)
	assert.Len(t, bounded, 10)
	assert.Equal(t, candidateIDs(candidates[:10]), candidateIDs(bounded))

	// Small sets come back whole
	assert.Len(t, BoundedPage(candidates[:3], 10), 3)
}

func TestFetchNextPageInFlightGuard(t *testing.T) {
	db := setupTestDB(t)
	pager := NewCursorPager(db, NewEnricher(db), 10)

	pager.inFlight.Store(true)
	_, err := pager.FetchNextPage(context.Background(), FilterState{})
	assert.ErrorIs(t, err, ErrFetchInFlight)

	// A settled fetch releases the guard
	pager.inFlight.Store(false)
	_, err = pager.FetchNextPage(context.Background(), FilterState{})
	assert.NoError(t, err)
}

func TestFetchNextPageAfterExhaustion(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "exhaust_author")
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		makePost(t, db, author, postSpec{
			Title:     "short feed",
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	pager := NewCursorPager(db, NewEnricher(db), 10)
	ctx := context.Background()

	page, err := pager.FetchNextPage(ctx, FilterState{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasNext)
	assert.False(t, pager.HasNextPage())

	// Further calls are cheap no-ops, not errors
	page, err = pager.FetchNextPage(ctx, FilterState{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestCursorPagerExamAndDateFilters(t *testing.T) {
	db := setupTestDB(t)
	author := makeUser(t, db, "filter_pager_author")
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		makePost(t, db, author, postSpec{
			Title:     "jee post",
			ExamType:  "JEE",
			CreatedAt: now.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	makePost(t, db, author, postSpec{
		Title:     "neet post",
		ExamType:  "NEET",
		CreatedAt: now.Add(-30 * time.Minute),
	})
	makePost(t, db, author, postSpec{
		Title:     "ancient jee post",
		ExamType:  "JEE",
		CreatedAt: now.Add(-400 * 24 * time.Hour),
	})

	pager := NewCursorPager(db, NewEnricher(db), 10)
	page, err := pager.FetchPage(context.Background(), nil, FilterState{
		Exams:      []string{"jee"},
		DateWindow: DateWindow1y,
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	for _, c := range page.Items {
		assert.Equal(t, "JEE", c.Post.ExamType)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	orig := Cursor{CreatedAt: time.Now().UTC().Truncate(time.Second), ID: "abc-123"}

	decoded, err := DecodeCursor(orig.Encode())
	require.NoError(t, err)
	assert.True(t, orig.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, orig.ID, decoded.ID)

	_, err = DecodeCursor("not a cursor!!")
	assert.Error(t, err)

	_, err = DecodeCursor("")
	assert.Error(t, err)
}
