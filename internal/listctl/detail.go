package listctl

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Loader fetches the primary entity of a detail view.
type Loader[T any] func(ctx context.Context, id string) (T, error)

// RelatedLoader fetches a side collection for the detail view, e.g. the
// recent attendance shown on a user page. Implementations store their
// result themselves.
type RelatedLoader func(ctx context.Context, id string) error

// ConfirmFunc asks the operator to confirm a destructive action. All
// destructive actions in a detail view go through the same contract.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// ErrActionInFlight is returned when a gated action is already running.
var ErrActionInFlight = errors.New("action already in flight")

// DetailController owns one entity view: the loaded entity, an optional
// edit draft and the per-action gates for destructive operations.
type DetailController[T any] struct {
	load    Loader[T]
	related []RelatedLoader
	confirm ConfirmFunc
	notify  Notifier

	mu      sync.Mutex
	id      string
	entity  T
	loaded  bool
	editing bool
	draft   T
	busy    map[string]bool
}

// NewDetail creates a detail controller. confirm may be nil, in which
// case destructive actions proceed without asking; notify may be nil.
func NewDetail[T any](load Loader[T], confirm ConfirmFunc, notify Notifier, related ...RelatedLoader) *DetailController[T] {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &DetailController[T]{
		load:    load,
		related: related,
		confirm: confirm,
		notify:  notify,
		busy:    make(map[string]bool),
	}
}

// Load fetches the entity and every related collection in parallel. A
// not-found on the primary entity is returned as-is so the caller can
// navigate back to the list.
func (d *DetailController[T]) Load(ctx context.Context, id string) error {
	g, gctx := errgroup.WithContext(ctx)

	var entity T
	g.Go(func() error {
		var err error
		entity, err = d.load(gctx, id)
		return err
	})
	for _, rel := range d.related {
		rel := rel
		g.Go(func() error {
			return rel(gctx, id)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	d.mu.Lock()
	d.id = id
	d.entity = entity
	d.loaded = true
	d.editing = false
	d.draft = entity
	d.mu.Unlock()
	return nil
}

// Entity returns the loaded entity.
func (d *DetailController[T]) Entity() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entity, d.loaded
}

// ID returns the id of the loaded entity.
func (d *DetailController[T]) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// BeginEdit enters edit mode and returns the draft, seeded from the
// last fetched entity.
func (d *DetailController[T]) BeginEdit() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.editing {
		d.editing = true
		d.draft = d.entity
	}
	return d.draft
}

// SetDraft replaces the draft while editing; ignored otherwise.
func (d *DetailController[T]) SetDraft(draft T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.editing {
		d.draft = draft
	}
}

// Draft returns the current draft and whether edit mode is active.
func (d *DetailController[T]) Draft() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft, d.editing
}

// CancelEdit leaves edit mode, resetting the draft from the last
// fetched entity.
func (d *DetailController[T]) CancelEdit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing = false
	d.draft = d.entity
}

// Editing reports whether edit mode is active.
func (d *DetailController[T]) Editing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editing
}

// Confirm runs a destructive action named name: it gates on any
// in-flight run of the same action, asks the operator through the
// confirm contract, then executes. A declined confirmation is a silent
// no-op; outcomes are reported through the notifier.
func (d *DetailController[T]) Confirm(ctx context.Context, name, prompt, successMsg string, action func(ctx context.Context) error) error {
	d.mu.Lock()
	if d.busy[name] {
		d.mu.Unlock()
		return ErrActionInFlight
	}
	d.busy[name] = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.busy, name)
		d.mu.Unlock()
	}()

	if d.confirm != nil {
		ok, err := d.confirm(ctx, prompt)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if err := action(ctx); err != nil {
		d.notify.Error(err.Error())
		return err
	}
	d.notify.Success(successMsg)
	return nil
}

// Busy reports whether the named action is currently running.
func (d *DetailController[T]) Busy(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy[name]
}
