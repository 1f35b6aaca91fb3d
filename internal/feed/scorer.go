package feed

import (
	"math"
	"sort"
	"time"
)

// Scoring weights and decay shape for the trending formula
const (
	likeWeight    = 1.0
	commentWeight = 2.0
	viewWeight    = 0.2
	decayOffset   = 2.0
	decayExponent = 1.5
)

// TrendScore computes the time-decayed engagement score for a post.
// Age below one hour is clamped to one hour so brand-new posts don't
// dominate on a near-zero denominator.
func TrendScore(likes, comments int, views int64, age time.Duration) float64 {
	raw := float64(likes)*likeWeight + float64(comments)*commentWeight + float64(views)*viewWeight

	ageHours := age.Hours()
	if ageHours < 1 {
		ageHours = 1
	}
	decay := math.Pow(ageHours+decayOffset, decayExponent)
	return raw / decay
}

// AttachScores computes a score for every candidate without reordering.
// A valid precomputed score on the post is trusted as-is; otherwise the
// score is derived from engagement and age at `now`.
func AttachScores(candidates []Candidate, now time.Time) []Candidate {
	for i := range candidates {
		c := &candidates[i]
		if pre := c.Post.TrendScore; pre != nil && !math.IsNaN(*pre) {
			c.Score = *pre
			continue
		}
		c.Score = TrendScore(c.Post.LikeCount, c.Post.CommentCount, c.ViewCount, now.Sub(c.Post.CreatedAt))
	}
	return candidates
}

// ScoreCandidates attaches scores and sorts descending. Ties break by
// creation time descending, then ID ascending, so ordering is deterministic.
func ScoreCandidates(candidates []Candidate, now time.Time) []Candidate {
	candidates = AttachScores(candidates, now)

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Post.CreatedAt.Equal(b.Post.CreatedAt) {
			return a.Post.CreatedAt.After(b.Post.CreatedAt)
		}
		return a.Post.ID < b.Post.ID
	})
	return candidates
}

// EngagedFirst filters a scored slice to candidates with nonzero engagement.
// When that leaves fewer than pageSize, the shortfall is backfilled from the
// full sorted slice, skipping ids already included, preserving score order.
// No candidate appears twice.
func EngagedFirst(candidates []Candidate, pageSize int) []Candidate {
	engaged := make([]Candidate, 0, len(candidates))
	included := make(map[string]struct{}, pageSize)
	for _, c := range candidates {
		if c.Engagement() > 0 {
			engaged = append(engaged, c)
			included[c.Post.ID] = struct{}{}
		}
	}

	if len(engaged) >= pageSize {
		return engaged
	}

	for _, c := range candidates {
		if len(engaged) >= pageSize {
			break
		}
		if _, ok := included[c.Post.ID]; ok {
			continue
		}
		engaged = append(engaged, c)
		included[c.Post.ID] = struct{}{}
	}
	return engaged
}
