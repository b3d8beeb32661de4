package listctl

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"faceattend/internal/paging"
)

type captureNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *captureNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *captureNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

type itemFilters struct {
	Category string
}

// newCountingController returns a controller whose fetch serves pages of
// a 25-item collection and counts invocations.
func newCountingController(count *atomic.Int64, notify Notifier) *Controller[string, itemFilters, int] {
	ctl := New[string, itemFilters, int](
		func(ctx context.Context, q Query[itemFilters]) ([]string, paging.Meta, error) {
			count.Add(1)
			return []string{"item"}, paging.NewMeta(q.Page, 10, 25), nil
		},
		nil,
		notify,
	)
	ctl.SetDebounce(0)
	return ctl
}

func TestEveryChangeIssuesExactlyOneFetch(t *testing.T) {
	var count atomic.Int64
	ctl := newCountingController(&count, nil)
	ctx := context.Background()

	ctl.SetFilter(ctx, itemFilters{Category: "a"})
	ctl.Wait()
	if got := count.Load(); got != 1 {
		t.Fatalf("after SetFilter: %d fetches, want 1", got)
	}

	ctl.SetPage(ctx, 2)
	ctl.Wait()
	if got := count.Load(); got != 2 {
		t.Fatalf("after SetPage: %d fetches, want 2", got)
	}

	ctl.SetSearch(ctx, "ada")
	ctl.Wait()
	if got := count.Load(); got != 3 {
		t.Fatalf("after SetSearch: %d fetches, want 3", got)
	}

	// Unchanged search text issues nothing.
	ctl.SetSearch(ctx, "ada")
	ctl.Wait()
	if got := count.Load(); got != 3 {
		t.Fatalf("repeat search issued a fetch: %d", got)
	}
}

func TestFetchCarriesAllCurrentValues(t *testing.T) {
	var got Query[itemFilters]
	ctl := New[string, itemFilters, int](
		func(ctx context.Context, q Query[itemFilters]) ([]string, paging.Meta, error) {
			got = q
			return nil, paging.NewMeta(q.Page, 10, 100), nil
		},
		nil, nil,
	)
	ctl.SetDebounce(0)
	ctx := context.Background()

	ctl.SetFilter(ctx, itemFilters{Category: "students"})
	ctl.Wait()
	ctl.SetSearch(ctx, "ada")
	ctl.Wait()
	ctl.SetPage(ctx, 3)
	ctl.Wait()

	if got.Search != "ada" || got.Filter.Category != "students" || got.Page != 3 {
		t.Fatalf("final query = %+v", got)
	}
}

func TestSearchIsDebounced(t *testing.T) {
	var count atomic.Int64
	ctl := New[string, itemFilters, int](
		func(ctx context.Context, q Query[itemFilters]) ([]string, paging.Meta, error) {
			count.Add(1)
			return nil, paging.Meta{}, nil
		},
		nil, nil,
	)
	ctl.SetDebounce(30 * time.Millisecond)
	ctx := context.Background()

	ctl.SetSearch(ctx, "a")
	ctl.SetSearch(ctx, "ad")
	ctl.SetSearch(ctx, "ada")
	if got := count.Load(); got != 0 {
		t.Fatalf("fetch fired before debounce settled: %d", got)
	}

	time.Sleep(100 * time.Millisecond)
	ctl.Wait()
	if got := count.Load(); got != 1 {
		t.Fatalf("debounced typing issued %d fetches, want 1", got)
	}
	if q := ctl.Query(); q.Search != "ada" || q.Page != 1 {
		t.Fatalf("query = %+v", q)
	}
}

func TestOnlyLatestFetchCommits(t *testing.T) {
	release := make(chan struct{})
	ctl := New[string, itemFilters, int](
		func(ctx context.Context, q Query[itemFilters]) ([]string, paging.Meta, error) {
			if q.Search == "slow" {
				<-release
				return []string{"stale"}, paging.Meta{}, nil
			}
			return []string{"fresh"}, paging.Meta{}, nil
		},
		nil, nil,
	)
	ctl.SetDebounce(0)
	ctx := context.Background()

	ctl.SetSearch(ctx, "slow")
	ctl.SetSearch(ctx, "fresh")

	// Let the stale response arrive after the fresh one.
	close(release)
	ctl.Wait()

	items := ctl.Items()
	if len(items) != 1 || items[0] != "fresh" {
		t.Fatalf("items = %v, the stale response must not win", items)
	}
	if ctl.State() != StateLoaded {
		t.Fatalf("state = %v", ctl.State())
	}
}

func TestFailedMutationLeavesCollectionUnchanged(t *testing.T) {
	var count atomic.Int64
	notify := &captureNotifier{}
	ctl := newCountingController(&count, notify)
	ctx := context.Background()

	ctl.Refresh(ctx)
	ctl.Wait()
	before := ctl.Items()
	fetchesBefore := count.Load()

	err := ctl.Mutate(ctx, "deleted", func(ctx context.Context) error {
		return errors.New("server said no")
	})
	if err == nil {
		t.Fatal("expected mutation error")
	}
	ctl.Wait()

	if count.Load() != fetchesBefore {
		t.Fatal("failed mutation must not refetch")
	}
	after := ctl.Items()
	if len(after) != len(before) {
		t.Fatal("failed mutation changed the collection")
	}
	if len(notify.errors) != 1 || notify.errors[0] != "server said no" {
		t.Fatalf("notifications = %v", notify.errors)
	}
}

func TestSuccessfulMutationRefetches(t *testing.T) {
	var count atomic.Int64
	notify := &captureNotifier{}
	ctl := newCountingController(&count, notify)
	ctx := context.Background()

	ctl.Refresh(ctx)
	ctl.Wait()
	fetchesBefore := count.Load()

	if err := ctl.Mutate(ctx, "user deleted", func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	ctl.Wait()

	if count.Load() != fetchesBefore+1 {
		t.Fatalf("fetches = %d, want %d", count.Load(), fetchesBefore+1)
	}
	if len(notify.successes) != 1 || notify.successes[0] != "user deleted" {
		t.Fatalf("notifications = %v", notify.successes)
	}
}

func TestPageBoundsAreNoOps(t *testing.T) {
	var count atomic.Int64
	ctl := newCountingController(&count, nil)
	ctx := context.Background()

	// 25 items, 10 per page: pages 1..3.
	ctl.Refresh(ctx)
	ctl.Wait()

	ctl.PrevPage(ctx)
	ctl.Wait()
	if got := count.Load(); got != 1 {
		t.Fatalf("PrevPage on page 1 fetched: %d", got)
	}

	ctl.SetPage(ctx, 3)
	ctl.Wait()
	ctl.NextPage(ctx)
	ctl.Wait()
	if got := count.Load(); got != 2 {
		t.Fatalf("NextPage on last page fetched: %d", got)
	}
}

func TestSetPageClampsBeyondLast(t *testing.T) {
	var got int
	ctl := New[string, itemFilters, int](
		func(ctx context.Context, q Query[itemFilters]) ([]string, paging.Meta, error) {
			got = q.Page
			return nil, paging.NewMeta(q.Page, 10, 25), nil
		},
		nil, nil,
	)
	ctl.SetDebounce(0)
	ctx := context.Background()

	ctl.Refresh(ctx)
	ctl.Wait()
	ctl.SetPage(ctx, 99)
	ctl.Wait()
	if got != 3 {
		t.Fatalf("page = %d, want clamp to 3", got)
	}
}

func TestFetchErrorEntersErroredState(t *testing.T) {
	boom := errors.New("boom")
	ctl := New[string, itemFilters, int](
		func(ctx context.Context, q Query[itemFilters]) ([]string, paging.Meta, error) {
			return nil, paging.Meta{}, boom
		},
		nil, nil,
	)
	ctl.SetDebounce(0)

	ctl.Refresh(context.Background())
	ctl.Wait()

	if ctl.State() != StateErrored {
		t.Fatalf("state = %v", ctl.State())
	}
	if !errors.Is(ctl.Err(), boom) {
		t.Fatalf("err = %v", ctl.Err())
	}
}

func TestStatsLoadAlongsideList(t *testing.T) {
	ctl := New[string, itemFilters, int](
		func(ctx context.Context, q Query[itemFilters]) ([]string, paging.Meta, error) {
			return []string{"x"}, paging.Meta{}, nil
		},
		func(ctx context.Context) (int, error) {
			return 42, nil
		},
		nil,
	)
	ctl.SetDebounce(0)

	ctl.Refresh(context.Background())
	ctl.Wait()

	if got := ctl.Stats(); got != 42 {
		t.Fatalf("stats = %d", got)
	}
}
