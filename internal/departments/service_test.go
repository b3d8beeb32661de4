package departments

import (
	"context"
	"errors"
	"testing"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// countingStore records how many writes reach the persistence layer.
type countingStore struct {
	creates int
	updates int
}

func (s *countingStore) List(ctx context.Context, f Filters, page int) ([]models.Department, paging.Meta, error) {
	return nil, paging.Meta{}, nil
}

func (s *countingStore) Get(ctx context.Context, id string) (models.Department, error) {
	return models.Department{}, models.ErrNotFound
}

func (s *countingStore) Create(ctx context.Context, d models.Department) (models.Department, error) {
	s.creates++
	d.ID = "dept-1"
	return d, nil
}

func (s *countingStore) Update(ctx context.Context, d models.Department) (models.Department, error) {
	s.updates++
	return d, nil
}

func (s *countingStore) Delete(ctx context.Context, id string) error { return nil }

func TestCreateRejectsEmptyNameBeforeStore(t *testing.T) {
	store := &countingStore{}
	svc := NewService(store)

	_, err := svc.Create(context.Background(), models.Department{Name: "   ", Code: "CS"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %T", err)
	}
	if verr.Fields["name"] == "" {
		t.Fatalf("want field-level error on name, got %v", verr.Fields)
	}
	if store.creates != 0 {
		t.Fatalf("store saw %d creates, want 0", store.creates)
	}
}

func TestCreateRequiresBothNameAndCode(t *testing.T) {
	store := &countingStore{}
	svc := NewService(store)

	_, err := svc.Create(context.Background(), models.Department{})
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("want errors on name and code, got %v", verr.Fields)
	}
	if store.creates != 0 {
		t.Fatal("invalid payload must not reach the store")
	}
}

func TestCreateNormalizesCode(t *testing.T) {
	store := &countingStore{}
	svc := NewService(store)

	d, err := svc.Create(context.Background(), models.Department{Name: " Physics ", Code: " phys "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Name != "Physics" || d.Code != "PHYS" {
		t.Fatalf("got name=%q code=%q", d.Name, d.Code)
	}
	if store.creates != 1 {
		t.Fatalf("store saw %d creates, want 1", store.creates)
	}
}

func TestUpdateValidatesToo(t *testing.T) {
	store := &countingStore{}
	svc := NewService(store)

	_, err := svc.Update(context.Background(), models.Department{ID: "dept-1", Name: "Physics"})
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if store.updates != 0 {
		t.Fatal("invalid payload must not reach the store")
	}
}
