package listctl

import (
	"context"
	"sync"
	"time"

	"faceattend/internal/paging"
)

// State is the lifecycle of a collection view. Any filter, page or
// mutation change re-enters StateLoading; there is no
// stale-while-revalidate.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateErrored
)

// Query is the full fetch input: free-text search, resource-specific
// filters and a 1-based page. Every fetch carries all current values.
type Query[F any] struct {
	Search string
	Filter F
	Page   int
}

// FetchFunc loads one page of the collection.
type FetchFunc[T, F any] func(ctx context.Context, q Query[F]) ([]T, paging.Meta, error)

// StatsFunc loads the aggregate cards shown next to the collection.
type StatsFunc[S any] func(ctx context.Context) (S, error)

// DefaultDebounce is how long search input settles before fetching.
const DefaultDebounce = 300 * time.Millisecond

// Controller owns one resource collection view: items, pagination,
// filters, aggregate stats and the loading state machine.
//
// Fetches run asynchronously. A generation counter guarantees that only
// the most recently issued fetch commits its response; slower earlier
// responses are discarded, so the view can never show results for stale
// filter values.
type Controller[T, F, S any] struct {
	fetch    FetchFunc[T, F]
	stats    StatsFunc[S]
	notify   Notifier
	debounce time.Duration

	// OnChange, when set, runs after every committed state change.
	OnChange func()

	mu       sync.Mutex
	state    State
	query    Query[F]
	items    []T
	meta     paging.Meta
	statsVal S
	err      error
	gen      uint64
	timer    *time.Timer
	inflight sync.WaitGroup
}

// New creates a controller. stats may be nil for resources without an
// aggregate view; notify may be nil.
func New[T, F, S any](fetch FetchFunc[T, F], stats StatsFunc[S], notify Notifier) *Controller[T, F, S] {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Controller[T, F, S]{
		fetch:    fetch,
		stats:    stats,
		notify:   notify,
		debounce: DefaultDebounce,
		state:    StateIdle,
		query:    Query[F]{Page: 1},
	}
}

// SetDebounce overrides the search debounce window. Zero disables
// debouncing entirely.
func (c *Controller[T, F, S]) SetDebounce(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounce = d
}

// State returns the current lifecycle state.
func (c *Controller[T, F, S]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns the loaded collection.
func (c *Controller[T, F, S]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Meta returns the pagination metadata of the loaded page.
func (c *Controller[T, F, S]) Meta() paging.Meta {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

// Stats returns the last loaded aggregate values.
func (c *Controller[T, F, S]) Stats() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsVal
}

// Err returns the error of the last failed fetch, nil otherwise.
func (c *Controller[T, F, S]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Query returns the current fetch inputs.
func (c *Controller[T, F, S]) Query() Query[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Refresh issues a fetch with the current query, cancelling any pending
// debounced search fetch so only one request goes out.
func (c *Controller[T, F, S]) Refresh(ctx context.Context) {
	c.mu.Lock()
	c.startFetchLocked(ctx)
	c.mu.Unlock()
}

// SetSearch updates the search text and resets to page 1. The fetch
// itself is debounced: typing reschedules it until input settles.
func (c *Controller[T, F, S]) SetSearch(ctx context.Context, search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.query.Search == search {
		return
	}
	c.query.Search = search
	c.query.Page = 1
	if c.debounce <= 0 {
		c.startFetchLocked(ctx)
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		c.startFetchLocked(ctx)
		c.mu.Unlock()
	})
}

// SetFilter replaces the discrete filters, resets to page 1 and fetches.
func (c *Controller[T, F, S]) SetFilter(ctx context.Context, filter F) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Filter = filter
	c.query.Page = 1
	c.startFetchLocked(ctx)
}

// SetPage moves to the given 1-based page and fetches. Pages below 1
// clamp to 1; pages beyond the known last page clamp to the last.
func (c *Controller[T, F, S]) SetPage(ctx context.Context, page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if c.meta.TotalPages > 0 && page > c.meta.TotalPages {
		page = c.meta.TotalPages
	}
	c.query.Page = page
	c.startFetchLocked(ctx)
}

// NextPage advances one page; a no-op on the last page.
func (c *Controller[T, F, S]) NextPage(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.meta.HasNext {
		return
	}
	c.query.Page = c.meta.Page + 1
	c.startFetchLocked(ctx)
}

// PrevPage goes back one page; a no-op on page 1.
func (c *Controller[T, F, S]) PrevPage(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.meta.HasPrev {
		return
	}
	c.query.Page = c.meta.Page - 1
	c.startFetchLocked(ctx)
}

// Mutate runs a write action against the API. On failure the collection
// is left untouched and the error is reported through the notifier. On
// success the list and stats are unconditionally re-fetched; there is no
// optimistic update.
func (c *Controller[T, F, S]) Mutate(ctx context.Context, successMsg string, action func(ctx context.Context) error) error {
	if err := action(ctx); err != nil {
		c.notify.Error(err.Error())
		return err
	}
	c.notify.Success(successMsg)
	c.Refresh(ctx)
	return nil
}

// Wait blocks until all in-flight fetches have settled. Pending debounce
// timers are not waited on.
func (c *Controller[T, F, S]) Wait() {
	c.inflight.Wait()
}

// startFetchLocked issues a new fetch generation. Callers hold c.mu.
func (c *Controller[T, F, S]) startFetchLocked(ctx context.Context) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	gen := c.gen
	q := c.query
	c.state = StateLoading
	c.inflight.Add(1)

	go func() {
		defer c.inflight.Done()
		items, meta, err := c.fetch(ctx, q)

		var statsVal S
		var statsErr error
		if err == nil && c.stats != nil {
			statsVal, statsErr = c.stats(ctx)
		}

		c.mu.Lock()
		if gen != c.gen {
			// A newer fetch was issued while this one ran; its response
			// wins regardless of arrival order.
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.state = StateErrored
			c.err = err
		} else {
			c.state = StateLoaded
			c.err = nil
			c.items = items
			c.meta = meta
			if c.stats != nil && statsErr == nil {
				c.statsVal = statsVal
			}
		}
		onChange := c.OnChange
		c.mu.Unlock()

		if onChange != nil {
			onChange()
		}
	}()
}
