package feed

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/metrics"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"gorm.io/gorm"
)

// ErrFetchInFlight is returned when FetchNextPage is called while a previous
// call is still running. The caller retries after the in-flight call settles.
var ErrFetchInFlight = errors.New("page fetch already in flight")

// Page is one cursor-mode page of enriched posts
type Page struct {
	Items []Candidate `json:"items"`

	// NextCursor is empty when HasNext is false
	NextCursor string `json:"next_cursor,omitempty"`

	// HasNext is derived from whether the fetch returned a full raw page
	HasNext bool `json:"has_next"`
}

// BoundedPage returns the first k candidates of an assembled feed, the
// whole feed for anonymous sessions. No further pages are obtainable.
func BoundedPage(candidates []Candidate, k int) []Candidate {
	if len(candidates) <= k {
		return candidates
	}
	return candidates[:k]
}

// CursorPager serves authenticated "load more" paging over posts in
// (created_at DESC, id DESC) order. Exam and date filters are pushed into
// the query; tag and free-text predicates are applied after enrichment, so
// a page may come back shorter than pageSize without affecting cursor
// progression.
type CursorPager struct {
	db       *gorm.DB
	enricher *Enricher
	pageSize int

	// Stateful iteration for FetchNextPage
	inFlight atomic.Bool
	cursor   *Cursor
	hasNext  bool
	started  bool
}

// NewCursorPager creates a pager with the given page size
func NewCursorPager(db *gorm.DB, enricher *Enricher, pageSize int) *CursorPager {
	return &CursorPager{
		db:       db,
		enricher: enricher,
		pageSize: pageSize,
		hasNext:  true,
	}
}

// FetchPage is the stateless entry point: fetch one page after the given
// cursor (nil for the first page) under the given filter state.
func (p *CursorPager) FetchPage(ctx context.Context, after *Cursor, state FilterState) (*Page, error) {
	q := p.db.WithContext(ctx).Model(&models.Post{}).
		Order("created_at DESC, id DESC").
		Limit(p.pageSize)

	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)",
			after.CreatedAt, after.CreatedAt, after.ID)
	}
	if len(state.Exams) > 0 {
		lowered := make([]string, len(state.Exams))
		for i, e := range state.Exams {
			lowered[i] = normalize(e)
		}
		q = q.Where("LOWER(exam_type) IN ?", lowered)
	}
	if cutoff, ok := windowCutoff(state.DateWindow, time.Now()); ok {
		q = q.Where("created_at >= ?", cutoff)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}

	page := &Page{HasNext: len(posts) == p.pageSize}
	if len(posts) > 0 {
		last := posts[len(posts)-1]
		if page.HasNext {
			page.NextCursor = Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
		}
	}

	// Scores are attached for display but pages keep keyset order, so
	// successive pages never gap or overlap
	candidates := p.enricher.Enrich(ctx, posts)
	candidates = AttachScores(candidates, time.Now())

	// Tag and query predicates run post-enrichment; date and exam already
	// constrained the query
	residual := FilterState{Tags: state.Tags, MatchAll: state.MatchAll, Query: state.Query}
	page.Items, _ = ApplyFilters(candidates, residual, time.Now())

	metrics.Get().FeedPagesServedTotal.WithLabelValues(strconv.FormatBool(page.HasNext)).Inc()
	return page, nil
}

// FetchNextPage advances the pager's own cursor, for callers that iterate a
// feed end to end (workers, exports) rather than holding cursors client-side
// like the HTTP API does. Guarded against concurrent invocation: a second
// call while one is running gets ErrFetchInFlight and no fetch happens. A
// failed fetch leaves the cursor where it was, so the caller retries by
// calling again.
func (p *CursorPager) FetchNextPage(ctx context.Context, state FilterState) (*Page, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrFetchInFlight
	}
	defer p.inFlight.Store(false)

	if p.started && !p.hasNext {
		return &Page{Items: []Candidate{}, HasNext: false}, nil
	}

	page, err := p.FetchPage(ctx, p.cursor, state)
	if err != nil {
		return nil, err
	}

	p.started = true
	p.hasNext = page.HasNext
	if page.NextCursor != "" {
		if c, derr := DecodeCursor(page.NextCursor); derr == nil {
			p.cursor = &c
		}
	}
	return page, nil
}

// HasNextPage reports whether another page is expected. True before the
// first fetch.
func (p *CursorPager) HasNextPage() bool {
	if !p.started {
		return true
	}
	return p.hasNext
}

// windowCutoff resolves a date window bucket to its lower bound. "Today"
// means midnight in now's location; callers pass a UTC now, so server-side
// the day boundary is UTC rather than any client-local midnight.
func windowCutoff(window string, now time.Time) (time.Time, bool) {
	switch window {
	case DateWindowToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case DateWindow7d:
		return now.Add(-7 * 24 * time.Hour), true
	case DateWindow1m:
		return now.AddDate(0, -1, 0), true
	case DateWindow1y:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}
