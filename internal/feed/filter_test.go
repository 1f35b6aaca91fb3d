package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taggedCandidate(id string, createdAt time.Time, tags ...string) Candidate {
	return Candidate{
		Post: models.Post{ID: id, CreatedAt: createdAt},
		Tags: tags,
	}
}

func TestTagFilterAnyVsAll(t *testing.T) {
	now := time.Now().UTC()
	candidates := []Candidate{
		taggedCandidate("p1", now, "a", "b"),
		taggedCandidate("p2", now, "a"),
		taggedCandidate("p3", now, "b"),
	}

	primary, _ := ApplyFilters(candidates, FilterState{Tags: []string{"a", "b"}, MatchAll: true}, now)
	assert.Equal(t, []string{"p1"}, candidateIDs(primary))

	primary, _ = ApplyFilters(candidates, FilterState{Tags: []string{"a", "b"}}, now)
	assert.Equal(t, []string{"p1", "p2", "p3"}, candidateIDs(primary))
}

func TestTagFilterCaseInsensitiveAndTrimmed(t *testing.T) {
	now := time.Now().UTC()
	candidates := []Candidate{
		taggedCandidate("lower", now, "physics"),
		taggedCandidate("upper", now, "PHYSICS"),
		taggedCandidate("other", now, "chemistry"),
	}

	primary, _ := ApplyFilters(candidates, FilterState{Tags: []string{"  Physics "}}, now)
	assert.ElementsMatch(t, []string{"lower", "upper"}, candidateIDs(primary))
}

func TestExamFilterOrSemantics(t *testing.T) {
	now := time.Now().UTC()
	candidates := []Candidate{
		{Post: models.Post{ID: "jee", ExamType: "JEE", CreatedAt: now}},
		{Post: models.Post{ID: "neet", ExamType: "neet", CreatedAt: now}},
		{Post: models.Post{ID: "gate", ExamType: "GATE", CreatedAt: now}},
	}

	primary, _ := ApplyFilters(candidates, FilterState{Exams: []string{"jee", "NEET"}}, now)
	assert.ElementsMatch(t, []string{"jee", "neet"}, candidateIDs(primary))
}

func TestDateWindowFilter(t *testing.T) {
	now := time.Now().UTC()
	candidates := []Candidate{
		{Post: models.Post{ID: "fresh", CreatedAt: now.Add(-3 * 24 * time.Hour)}},
		{Post: models.Post{ID: "stale", CreatedAt: now.Add(-10 * 24 * time.Hour)}},
	}

	primary, _ := ApplyFilters(candidates, FilterState{DateWindow: DateWindow7d}, now)
	assert.Equal(t, []string{"fresh"}, candidateIDs(primary))

	primary, _ = ApplyFilters(candidates, FilterState{DateWindow: DateWindowAll}, now)
	assert.Len(t, primary, 2)

	primary, _ = ApplyFilters(candidates, FilterState{}, now)
	assert.Len(t, primary, 2)
}

func TestFreeTextSearchFields(t *testing.T) {
	now := time.Now().UTC()
	author := models.User{Username: "rohan_k"}
	candidates := []Candidate{
		{Post: models.Post{ID: "title", Title: "Thermodynamics notes", CreatedAt: now}},
		{Post: models.Post{ID: "content", Content: "solved thermodynamics problems", CreatedAt: now}},
		{Post: models.Post{ID: "author", CreatedAt: now}, Author: &author},
		{Post: models.Post{ID: "exam", ExamType: "JEE", CreatedAt: now}},
		{Post: models.Post{ID: "none", Title: "unrelated", CreatedAt: now}},
	}

	primary, _ := ApplyFilters(candidates, FilterState{Query: "Thermodynamics"}, now)
	assert.ElementsMatch(t, []string{"title", "content"}, candidateIDs(primary))

	primary, _ = ApplyFilters(candidates, FilterState{Query: "rohan"}, now)
	assert.Equal(t, []string{"author"}, candidateIDs(primary))

	primary, _ = ApplyFilters(candidates, FilterState{Query: "jee"}, now)
	assert.Equal(t, []string{"exam"}, candidateIDs(primary))
}

func TestSearchFallbackIsNonDestructive(t *testing.T) {
	now := time.Now().UTC()
	candidates := []Candidate{
		taggedCandidate("related1", now, "physics"),
		taggedCandidate("related2", now, "physics", "mechanics"),
		taggedCandidate("unrelated", now, "history"),
	}

	// No candidate contains the full query as a substring, but a token of
	// it matches tags
	primary, related := ApplyFilters(candidates, FilterState{Query: "physics handwritten shortcuts"}, now)
	assert.Empty(t, primary, "primary results must stay empty, not be replaced by the fallback")
	assert.ElementsMatch(t, []string{"related1", "related2"}, candidateIDs(related))
}

func TestSearchFallbackCapAndTokenLength(t *testing.T) {
	now := time.Now().UTC()

	candidates := make([]Candidate, 0, 15)
	for i := 0; i < 15; i++ {
		candidates = append(candidates, taggedCandidate(fmt.Sprintf("p%02d", i), now, "physics"))
	}

	primary, related := ApplyFilters(candidates, FilterState{Query: "physics zz qq revision"}, now)
	assert.Empty(t, primary)
	assert.Len(t, related, 10, "related fallback is capped at 10")

	// Tokens of length <= 2 are ignored entirely
	_, related = ApplyFilters(candidates, FilterState{Query: "ph ys"}, now)
	assert.Empty(t, related)
}

func TestFiltersComposeByAnd(t *testing.T) {
	now := time.Now().UTC()
	candidates := []Candidate{
		{Post: models.Post{ID: "match", ExamType: "jee", Title: "integration tricks", CreatedAt: now.Add(-time.Hour)}, Tags: []string{"maths"}},
		{Post: models.Post{ID: "wrong_exam", ExamType: "neet", Title: "integration tricks", CreatedAt: now.Add(-time.Hour)}, Tags: []string{"maths"}},
		{Post: models.Post{ID: "wrong_tag", ExamType: "jee", Title: "integration tricks", CreatedAt: now.Add(-time.Hour)}, Tags: []string{"physics"}},
		{Post: models.Post{ID: "too_old", ExamType: "jee", Title: "integration tricks", CreatedAt: now.Add(-400 * 24 * time.Hour)}, Tags: []string{"maths"}},
	}

	state := FilterState{
		Tags:       []string{"maths"},
		Exams:      []string{"jee"},
		DateWindow: DateWindow1y,
		Query:      "integration",
	}
	primary, _ := ApplyFilters(candidates, state, now)
	assert.Equal(t, []string{"match"}, candidateIDs(primary))
}

func TestFilterStoreNotifiesSubscribers(t *testing.T) {
	store := NewFilterStore()

	var got []FilterState
	unsub := store.Subscribe(func(s FilterState) {
		got = append(got, s)
	})

	store.Set(FilterState{Tags: []string{"physics"}})
	store.Update(func(s *FilterState) {
		s.Exams = []string{"jee"}
	})

	require.Len(t, got, 2)
	assert.Equal(t, []string{"physics"}, got[0].Tags)
	assert.Equal(t, []string{"physics"}, got[1].Tags)
	assert.Equal(t, []string{"jee"}, got[1].Exams)

	unsub()
	store.Clear()
	assert.Len(t, got, 2, "unsubscribed callbacks must not fire")
	assert.True(t, store.Get().IsZero())
}

func TestFilterStoreSnapshotsAreIsolated(t *testing.T) {
	store := NewFilterStore()
	store.Set(FilterState{Tags: []string{"physics"}})

	snap := store.Get()
	snap.Tags[0] = "mutated"

	assert.Equal(t, []string{"physics"}, store.Get().Tags)
}
