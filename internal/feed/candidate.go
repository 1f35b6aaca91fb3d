// Package feed implements the feed assembly pipeline: tiered candidate
// fetching, batched enrichment, trend scoring, filtering, and pagination.
// The pipeline reads engagement counters maintained by the mutation flows;
// it never writes them.
package feed

import (
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
)

// Candidate is a post under consideration by the pipeline, carrying the
// related data attached during enrichment and the transient trend score.
type Candidate struct {
	Post models.Post `json:"post"`

	// Author is nil when the owning account was deleted
	Author *models.User `json:"author,omitempty"`

	// Tag names, lowercased at enrichment time
	Tags []string `json:"tags"`

	ViewCount int64 `json:"view_count"`

	// Score is recomputed every run unless the post carries a valid
	// precomputed value
	Score float64 `json:"score"`

	// Eager marks posts in the first batch of a progressive load for
	// high-priority media fetching downstream
	Eager bool `json:"eager,omitempty"`
}

// Engagement returns the candidate's total engagement across all signals
func (c *Candidate) Engagement() int64 {
	return int64(c.Post.LikeCount) + int64(c.Post.CommentCount) + c.ViewCount
}

// dedupePosts merges posts into the pool keyed by ID, first-seen wins.
// Returns the updated pool and how many new posts were added.
func dedupePosts(pool []models.Post, seen map[string]struct{}, incoming []models.Post) ([]models.Post, int) {
	added := 0
	for _, p := range incoming {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		pool = append(pool, p)
		added++
	}
	return pool, added
}
