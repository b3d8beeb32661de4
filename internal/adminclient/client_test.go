package adminclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"faceattend/internal/models"
)

func TestRequestsCarryBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user": {"id": "u1"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	client.Tokens().Set("tok-123", "refresh-123")

	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestNoHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestUnauthorizedClearsTokenAndFiresHookOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "token expired"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	client.Tokens().Set("stale", "stale-refresh")

	fired := 0
	client.OnUnauthorized = func() { fired++ }

	// The in-flight call still fails; the credential is gone afterwards.
	if _, err := client.Me(context.Background()); err == nil {
		t.Fatal("expected error from 401")
	}
	if client.Tokens().AccessToken() != "" {
		t.Fatal("401 should clear the stored credential")
	}
	if fired != 1 {
		t.Fatalf("hook fired %d times, want 1", fired)
	}

	// Further 401s without a stored credential stay silent.
	if _, err := client.Me(context.Background()); err == nil {
		t.Fatal("expected error from second 401")
	}
	if fired != 1 {
		t.Fatalf("hook fired %d times after second 401, want 1", fired)
	}

	// A fresh sign-in re-arms the hook.
	client.Tokens().Set("fresh", "fresh-refresh")
	if _, err := client.Me(context.Background()); err == nil {
		t.Fatal("expected error from third 401")
	}
	if fired != 2 {
		t.Fatalf("hook fired %d times after new session, want 2", fired)
	}
}

func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "validation failed", "fields": {"name": "name is required"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	_, err := client.CreateDepartment(context.Background(), DepartmentInput{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if apiErr.Message != "validation failed (name: name is required)" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestNotFoundMapsToErrNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "not found"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	_, err := client.GetUser(context.Background(), "ghost")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLoginStoresTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"access_token": "acc", "refresh_token": "ref", "user": {"id": "u1", "name": "Ada"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	sess, err := client.Login(context.Background(), "ada@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.User.Name != "Ada" {
		t.Fatalf("user = %+v", sess.User)
	}
	if client.Tokens().AccessToken() != "acc" || client.Tokens().RefreshToken() != "ref" {
		t.Fatal("tokens not stored")
	}
}

func TestExportParsesContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance_2024-01-01_to_2024-01-31.csv"`)
		w.Write([]byte("id,date\n"))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	filename, data, err := client.ExportAttendance(context.Background(), AttendanceFilters{
		Start: "2024-01-01", End: "2024-01-31",
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filename != "attendance_2024-01-01_to_2024-01-31.csv" {
		t.Fatalf("filename = %q", filename)
	}
	if string(data) != "id,date\n" {
		t.Fatalf("data = %q", data)
	}
}

func TestListUsersQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"users": [], "pagination": {"page": 1, "total_pages": 1}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	active := true
	_, err := client.ListUsers(context.Background(), UserFilters{
		Search: "ada", Role: "student", Active: &active, Page: 2,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := "active=true&page=2&role=student&search=ada"
	if gotQuery != want {
		t.Fatalf("query = %q, want %q", gotQuery, want)
	}
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileTokenStore(path)

	if store.AccessToken() != "" {
		t.Fatal("fresh store should be empty")
	}
	store.Set("acc", "ref")
	if store.AccessToken() != "acc" || store.RefreshToken() != "ref" {
		t.Fatal("tokens not persisted")
	}

	// A second store on the same path sees the session.
	again := NewFileTokenStore(path)
	if again.AccessToken() != "acc" {
		t.Fatal("session not shared through the file")
	}

	store.Clear()
	if again.AccessToken() != "" {
		t.Fatal("clear should remove the session file")
	}
}
