package feed

import (
	"context"
	"errors"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/metrics"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrFeedUnavailable is returned when every tier failed and nothing could be
// gathered. Partial results never produce an error.
var ErrFeedUnavailable = errors.New("feed unavailable: no candidates could be fetched")

const (
	recentWindow   = 14 * 24 * time.Hour
	likeRankWindow = 90 * 24 * time.Hour
	recentHardCap  = 500
	tierOverfetch  = 2 // tiers fetch need*tierOverfetch to survive dedupe losses
)

// Tier is one query strategy in the fetcher's ordered fallback sequence.
// A tier fetches up to `need` additional posts; it does not dedupe against
// the existing pool, the driver does.
type Tier interface {
	Name() string
	Fetch(ctx context.Context, db *gorm.DB, need int) ([]models.Post, error)
}

// recentTier fetches posts created within a recent window, newest first,
// capped at a hard ceiling
type recentTier struct{}

func (recentTier) Name() string { return "recent" }

func (recentTier) Fetch(ctx context.Context, db *gorm.DB, need int) ([]models.Post, error) {
	limit := need * tierOverfetch
	if limit > recentHardCap {
		limit = recentHardCap
	}
	var posts []models.Post
	err := db.WithContext(ctx).
		Where("created_at >= ?", time.Now().UTC().Add(-recentWindow)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// likeRankTier fetches posts from a longer window ordered by like count
type likeRankTier struct{}

func (likeRankTier) Name() string { return "like_rank" }

func (likeRankTier) Fetch(ctx context.Context, db *gorm.DB, need int) ([]models.Post, error) {
	var posts []models.Post
	err := db.WithContext(ctx).
		Where("created_at >= ?", time.Now().UTC().Add(-likeRankWindow)).
		Order("like_count DESC, created_at DESC").
		Limit(need * tierOverfetch).
		Find(&posts).Error
	return posts, err
}

// commentRankTier fetches posts ordered by comment count, no window
type commentRankTier struct{}

func (commentRankTier) Name() string { return "comment_rank" }

func (commentRankTier) Fetch(ctx context.Context, db *gorm.DB, need int) ([]models.Post, error) {
	var posts []models.Post
	err := db.WithContext(ctx).
		Order("comment_count DESC, created_at DESC").
		Limit(need * tierOverfetch).
		Find(&posts).Error
	return posts, err
}

// latestTier fetches the most recent posts regardless of window, the last
// resort when everything else came up short
type latestTier struct{}

func (latestTier) Name() string { return "latest" }

func (latestTier) Fetch(ctx context.Context, db *gorm.DB, need int) ([]models.Post, error) {
	var posts []models.Post
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(need * tierOverfetch).
		Find(&posts).Error
	return posts, err
}

// DefaultTiers returns the production fallback sequence
func DefaultTiers() []Tier {
	return []Tier{recentTier{}, likeRankTier{}, commentRankTier{}, latestTier{}}
}

// Fetcher gathers a candidate pool by running fallback tiers in order until
// the pool reaches the minimum size. Tier errors are non-fatal: an erroring
// tier contributes zero candidates and the driver moves on.
type Fetcher struct {
	db    *gorm.DB
	tiers []Tier
}

// NewFetcher creates a fetcher over the given connection and tier sequence
func NewFetcher(db *gorm.DB, tiers []Tier) *Fetcher {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Fetcher{db: db, tiers: tiers}
}

// FetchCandidates returns at least min(n, available) distinct posts,
// preferring recency. First-seen ordering wins on dedupe. Returns
// ErrFeedUnavailable only when the pool is empty and at least one tier
// actually failed.
func (f *Fetcher) FetchCandidates(ctx context.Context, n int) ([]models.Post, error) {
	pool := make([]models.Post, 0, n)
	seen := make(map[string]struct{}, n)
	anyErr := false

	for _, tier := range f.tiers {
		if len(pool) >= n {
			break
		}

		posts, err := tier.Fetch(ctx, f.db, n-len(pool))
		if err != nil {
			anyErr = true
			metrics.RecordTierFetch(tier.Name(), "error")
			logger.Log.Warn("Feed tier fetch failed",
				zap.String("tier", tier.Name()),
				zap.Error(err))
			continue
		}

		var added int
		pool, added = dedupePosts(pool, seen, posts)
		metrics.RecordTierFetch(tier.Name(), "ok")
		logger.Log.Debug("Feed tier contributed",
			zap.String("tier", tier.Name()),
			zap.Int("added", added),
			zap.Int("pool", len(pool)))
	}

	if len(pool) == 0 && anyErr {
		return nil, ErrFeedUnavailable
	}
	return pool, nil
}
