package feed

import (
	"context"
	"sync"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"go.uber.org/zap"
)

// ChangeFeed is the change-notification collaborator the sync adapter
// subscribes to. Delivery is at-least-once; the adapter tolerates duplicate
// notifications by re-deriving state rather than applying deltas.
type ChangeFeed interface {
	// Subscribe registers fn for change events in scope and returns an
	// unsubscribe function
	Subscribe(scope string, fn func()) (func(), error)
}

// Debouncer coalesces bursts of triggers into one trailing-edge callback
type Debouncer struct {
	mu    sync.Mutex
	d     time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period
func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{d: d}
}

// Trigger schedules fn after the quiet period, resetting any pending
// schedule. Only the last fn of a burst runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.d, fn)
}

// Stop cancels any pending callback
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// SyncAdapter keeps the committed feed live: change notifications trigger a
// debounced pipeline re-run, and committed (non-stale) results are handed to
// the callback for delivery. Subscription failure degrades to manual
// refresh; it is never surfaced as an error.
type SyncAdapter struct {
	pipeline *Pipeline
	store    *FilterStore
	feed     ChangeFeed
	debounce *Debouncer

	onResult func(*Result)

	mu     sync.Mutex
	unsubs []func()
}

// NewSyncAdapter wires a pipeline, its filter store, and a change feed.
// onResult receives every freshly committed result.
func NewSyncAdapter(pipeline *Pipeline, store *FilterStore, feed ChangeFeed, debounce time.Duration, onResult func(*Result)) *SyncAdapter {
	return &SyncAdapter{
		pipeline: pipeline,
		store:    store,
		feed:     feed,
		debounce: NewDebouncer(debounce),
		onResult: onResult,
	}
}

// Start subscribes to the given scopes and begins reacting to changes.
// Filter-state changes also trigger a refresh, so the displayed feed tracks
// both data and selection.
func (a *SyncAdapter) Start(ctx context.Context, scopes ...string) {
	for _, scope := range scopes {
		unsub, err := a.feed.Subscribe(scope, func() {
			a.debounce.Trigger(func() { a.refresh(ctx) })
		})
		if err != nil {
			// Realtime is an enhancement, not a correctness requirement
			logger.Log.Warn("Change feed subscription failed, falling back to manual refresh",
				zap.String("scope", scope),
				zap.Error(err))
			continue
		}
		a.mu.Lock()
		a.unsubs = append(a.unsubs, unsub)
		a.mu.Unlock()
	}

	storeUnsub := a.store.Subscribe(func(FilterState) {
		a.debounce.Trigger(func() { a.refresh(ctx) })
	})
	a.mu.Lock()
	a.unsubs = append(a.unsubs, storeUnsub)
	a.mu.Unlock()
}

// refresh re-runs the pipeline with the current filter state. Stale results
// lost the commit race and are dropped here; errors are logged and the
// previously committed state stays visible.
func (a *SyncAdapter) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := a.pipeline.Run(ctx, a.store.Get())
	if err != nil {
		logger.Log.Warn("Realtime-triggered feed refresh failed", zap.Error(err))
		return
	}
	if result.Stale {
		return
	}
	if a.onResult != nil {
		a.onResult(result)
	}
}

// Stop unsubscribes everything and cancels any pending refresh
func (a *SyncAdapter) Stop() {
	a.debounce.Stop()

	a.mu.Lock()
	unsubs := a.unsubs
	a.unsubs = nil
	a.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}
