package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options configures a pipeline
type Options struct {
	// MinCandidates is the target pool size the fetch tiers work toward
	MinCandidates int

	// PageSize drives the engagement-first backfill and cursor pages
	PageSize int

	// AnonymousCap bounds the feed for unauthenticated sessions
	AnonymousCap int

	// EagerBatch is the size of the immediate batch in progressive loads
	EagerBatch int
}

// DefaultOptions returns production defaults
func DefaultOptions() Options {
	return Options{
		MinCandidates: 60,
		PageSize:      10,
		AnonymousCap:  10,
		EagerBatch:    2,
	}
}

// Result is one committed pipeline run: the filtered, scored feed plus the
// looser related-content list populated only when a free-text query matched
// nothing.
type Result struct {
	// Seq orders runs; higher is fresher
	Seq uint64 `json:"seq"`

	Primary []Candidate `json:"primary"`
	Related []Candidate `json:"related"`

	GeneratedAt time.Time `json:"generated_at"`

	// Stale marks a result that lost the commit race to a fresher run.
	// Its contents are still valid for the requester that triggered it;
	// it just must not overwrite displayed state.
	Stale bool `json:"-"`
}

// Pipeline assembles the feed: fetch -> enrich -> score -> filter. Runs may
// overlap (an initial load racing a realtime-triggered refresh); a
// monotonically increasing sequence check ensures a slow older run never
// overwrites the committed state of a newer one.
type Pipeline struct {
	db       *gorm.DB
	fetcher  *Fetcher
	enricher *Enricher
	opts     Options

	seq atomic.Uint64

	mu      sync.RWMutex
	current *Result
}

// NewPipeline creates a pipeline with the default tier sequence
func NewPipeline(db *gorm.DB, opts Options) *Pipeline {
	return &Pipeline{
		db:       db,
		fetcher:  NewFetcher(db, DefaultTiers()),
		enricher: NewEnricher(db),
		opts:     opts,
	}
}

// Run executes one full pipeline pass under the given filter state. The
// returned result carries Stale=true when a fresher run committed first.
func (p *Pipeline) Run(ctx context.Context, state FilterState) (*Result, error) {
	seq := p.seq.Add(1)
	start := time.Now()
	now := start.UTC()

	posts, err := p.fetcher.FetchCandidates(ctx, p.opts.MinCandidates)
	if err != nil {
		metrics.RecordFeedRun("full", "error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.Get().FeedCandidateCount.WithLabelValues("full").Observe(float64(len(posts)))

	candidates := p.enricher.Enrich(ctx, posts)
	candidates = ScoreCandidates(candidates, now)
	candidates = EngagedFirst(candidates, p.opts.PageSize)

	primary, related := ApplyFilters(candidates, state, now)

	result := &Result{
		Seq:         seq,
		Primary:     primary,
		Related:     related,
		GeneratedAt: now,
	}
	result.Stale = !p.commit(result)

	metrics.RecordFeedRun("full", "ok", time.Since(start).Seconds())
	logger.Log.Debug("Feed pipeline run complete",
		zap.Uint64("seq", seq),
		zap.Int("candidates", len(candidates)),
		zap.Int("primary", len(primary)),
		zap.Int("related", len(related)),
		zap.Bool("stale", result.Stale))
	return result, nil
}

// commit installs the result as current unless a fresher run already did
func (p *Pipeline) commit(r *Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.Seq >= r.Seq {
		metrics.RecordStaleCommit()
		logger.Log.Debug("Discarding stale pipeline result",
			zap.Uint64("seq", r.Seq),
			zap.Uint64("committed_seq", p.current.Seq))
		return false
	}
	p.current = r
	return true
}

// Current returns the last committed result, nil before the first run
func (p *Pipeline) Current() *Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Options returns the pipeline's configuration
func (p *Pipeline) Options() Options {
	return p.opts
}
