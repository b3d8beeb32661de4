package listctl

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"faceattend/internal/models"
)

type profile struct {
	ID   string
	Name string
}

func TestDetailLoadFetchesPrimaryAndRelated(t *testing.T) {
	var relatedCalls atomic.Int64
	d := NewDetail(
		func(ctx context.Context, id string) (profile, error) {
			return profile{ID: id, Name: "Ada"}, nil
		},
		nil, nil,
		func(ctx context.Context, id string) error {
			relatedCalls.Add(1)
			return nil
		},
		func(ctx context.Context, id string) error {
			relatedCalls.Add(1)
			return nil
		},
	)

	if err := d.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := d.Entity()
	if !ok || got.Name != "Ada" {
		t.Fatalf("entity = %+v, loaded %v", got, ok)
	}
	if d.ID() != "u1" {
		t.Fatalf("id = %q", d.ID())
	}
	if relatedCalls.Load() != 2 {
		t.Fatalf("related loaders ran %d times, want 2", relatedCalls.Load())
	}
}

func TestDetailLoadPropagatesNotFound(t *testing.T) {
	d := NewDetail(
		func(ctx context.Context, id string) (profile, error) {
			return profile{}, models.ErrNotFound
		},
		nil, nil,
	)

	err := d.Load(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, ok := d.Entity(); ok {
		t.Fatal("failed load must not mark the entity loaded")
	}
}

func TestDetailEditDraftLifecycle(t *testing.T) {
	d := NewDetail(
		func(ctx context.Context, id string) (profile, error) {
			return profile{ID: id, Name: "Ada"}, nil
		},
		nil, nil,
	)
	if err := d.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if d.Editing() {
		t.Fatal("editing before BeginEdit")
	}
	draft := d.BeginEdit()
	if draft.Name != "Ada" {
		t.Fatalf("draft seeded with %q", draft.Name)
	}

	draft.Name = "Grace"
	d.SetDraft(draft)
	got, editing := d.Draft()
	if !editing || got.Name != "Grace" {
		t.Fatalf("draft = %+v, editing %v", got, editing)
	}

	// The entity itself is untouched while a draft is being edited.
	entity, _ := d.Entity()
	if entity.Name != "Ada" {
		t.Fatalf("entity mutated by draft edit: %+v", entity)
	}

	d.CancelEdit()
	got, editing = d.Draft()
	if editing || got.Name != "Ada" {
		t.Fatalf("after cancel: draft = %+v, editing %v", got, editing)
	}

	// SetDraft outside edit mode is ignored.
	d.SetDraft(profile{Name: "Linus"})
	if got, _ := d.Draft(); got.Name != "Ada" {
		t.Fatalf("draft changed outside edit mode: %+v", got)
	}
}

func TestConfirmDeclinedIsSilentNoOp(t *testing.T) {
	notify := &captureNotifier{}
	ran := false
	d := NewDetail(
		func(ctx context.Context, id string) (profile, error) { return profile{}, nil },
		func(ctx context.Context, prompt string) (bool, error) { return false, nil },
		notify,
	)

	err := d.Confirm(context.Background(), "delete", "Delete this user?", "user deleted", func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("declined confirm returned %v", err)
	}
	if ran {
		t.Fatal("action ran after a declined confirmation")
	}
	if len(notify.successes) != 0 || len(notify.errors) != 0 {
		t.Fatalf("declined confirm notified: %v %v", notify.successes, notify.errors)
	}
}

func TestConfirmAcceptedRunsActionAndNotifies(t *testing.T) {
	notify := &captureNotifier{}
	var prompts []string
	d := NewDetail(
		func(ctx context.Context, id string) (profile, error) { return profile{}, nil },
		func(ctx context.Context, prompt string) (bool, error) {
			prompts = append(prompts, prompt)
			return true, nil
		},
		notify,
	)

	if err := d.Confirm(context.Background(), "delete", "Delete this user?", "user deleted", func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(prompts) != 1 || prompts[0] != "Delete this user?" {
		t.Fatalf("prompts = %v", prompts)
	}
	if len(notify.successes) != 1 || notify.successes[0] != "user deleted" {
		t.Fatalf("successes = %v", notify.successes)
	}

	err := d.Confirm(context.Background(), "delete", "Delete this user?", "user deleted", func(ctx context.Context) error {
		return errors.New("conflict")
	})
	if err == nil {
		t.Fatal("expected action error")
	}
	if len(notify.errors) != 1 || notify.errors[0] != "conflict" {
		t.Fatalf("errors = %v", notify.errors)
	}
}

func TestConfirmGatesConcurrentRuns(t *testing.T) {
	d := NewDetail(
		func(ctx context.Context, id string) (profile, error) { return profile{}, nil },
		nil, nil,
	)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- d.Confirm(context.Background(), "delete", "", "done", func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if !d.Busy("delete") {
		t.Fatal("action not reported busy while running")
	}
	if err := d.Confirm(context.Background(), "delete", "", "done", func(ctx context.Context) error {
		return nil
	}); !errors.Is(err, ErrActionInFlight) {
		t.Fatalf("second run returned %v, want ErrActionInFlight", err)
	}

	// A differently named action is not gated by the first.
	if err := d.Confirm(context.Background(), "reset-password", "", "done", func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("unrelated action gated: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}

	deadline := time.After(time.Second)
	for d.Busy("delete") {
		select {
		case <-deadline:
			t.Fatal("busy flag never cleared")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
