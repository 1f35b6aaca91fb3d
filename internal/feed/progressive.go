package feed

import (
	"context"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"go.uber.org/zap"
)

// ProgressiveResult is a two-stage feed load: a tiny eager batch available
// immediately, and the remainder of the page delivered on Rest when the
// background pass finishes. Rest is closed after at most one send; an empty
// close means the background pass failed or added nothing, and what was
// already delivered stays as-is.
type ProgressiveResult struct {
	Initial []Candidate `json:"initial"`

	Rest <-chan []Candidate `json:"-"`
}

// RunProgressive serves the initial load path: a small fast fetch sized to
// the eager batch returns immediately, while the full pipeline runs in the
// background and delivers the rest of the page. Scoring and filtering
// semantics are identical to Run; only delivery timing and the per-post
// Eager flag differ.
func (p *Pipeline) RunProgressive(ctx context.Context, state FilterState) (*ProgressiveResult, error) {
	eager := p.opts.EagerBatch

	// Stage one: a shallow pass that stops fetching as soon as the eager
	// batch can be filled
	posts, err := p.fetcher.FetchCandidates(ctx, eager)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	candidates := p.enricher.Enrich(ctx, posts)
	candidates = ScoreCandidates(candidates, now)
	initial, _ := ApplyFilters(candidates, state, now)
	initial = BoundedPage(initial, eager)
	for i := range initial {
		initial[i].Eager = true
	}

	rest := make(chan []Candidate, 1)
	result := &ProgressiveResult{Initial: initial, Rest: rest}

	seenEager := make(map[string]struct{}, len(initial))
	for _, c := range initial {
		seenEager[c.Post.ID] = struct{}{}
	}

	// Stage two: the full pipeline in the background; the eager posts are
	// excluded from the delivered remainder so nothing renders twice. The
	// caller's context usually dies as soon as the eager batch is written
	// (an HTTP handler returning), so the background run keeps its values
	// but detaches from its cancellation.
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(rest)

		full, err := p.Run(bgCtx, state)
		if err != nil {
			logger.Log.Warn("Progressive background fetch failed", zap.Error(err))
			return
		}

		remainder := make([]Candidate, 0, p.opts.PageSize)
		for _, c := range full.Primary {
			if len(remainder)+len(seenEager) >= p.opts.PageSize {
				break
			}
			if _, ok := seenEager[c.Post.ID]; ok {
				continue
			}
			remainder = append(remainder, c)
		}
		if len(remainder) > 0 {
			rest <- remainder
		}
	}()

	return result, nil
}
