package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"classpoll/pkg/types"
)

type mockCoordinator struct {
	stats types.Stats
}

func (m *mockCoordinator) Stats() types.Stats {
	return m.stats
}

type mockArchive struct {
	pollCount      int
	shouldFailPing bool
	shouldFailRead bool
}

func (m *mockArchive) PollCount(ctx context.Context) (int, error) {
	if m.shouldFailRead {
		return 0, errors.New("mock read failure")
	}
	return m.pollCount, nil
}

func (m *mockArchive) Ping(ctx context.Context) error {
	if m.shouldFailPing {
		return errors.New("mock ping failure")
	}
	return nil
}

type mockRegistry struct {
	stats map[string]int
}

func (m *mockRegistry) Stats() map[string]int {
	return m.stats
}

func newTestServer(coordinator *mockCoordinator, archive *mockArchive) *Server {
	registry := &mockRegistry{stats: map[string]int{"total": 3, "teachers": 1, "students": 2}}
	return NewServer(coordinator, archive, registry, "1.0.0", "http://poll.example.edu/", false)
}

func TestHealthCheckHealthy(t *testing.T) {
	s := newTestServer(&mockCoordinator{}, &mockArchive{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected healthy status, got %q", resp.Status)
	}
	if resp.Connections["students"] != 2 {
		t.Errorf("expected 2 students in connection stats, got %d", resp.Connections["students"])
	}
}

func TestHealthCheckArchiveDown(t *testing.T) {
	s := newTestServer(&mockCoordinator{}, &mockArchive{shouldFailPing: true})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("expected unhealthy status, got %q", resp.Status)
	}
}

func TestHealthCheckAlias(t *testing.T) {
	s := newTestServer(&mockCoordinator{}, &mockArchive{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from /api/health, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	coordinator := &mockCoordinator{stats: types.Stats{
		ActiveStudents: 4,
		TotalPolls:     2,
		CurrentPoll:    &types.CurrentPoll{ID: "p1", Question: "Favorite color?", TimeRemaining: 30},
	}}
	s := newTestServer(coordinator, &mockArchive{pollCount: 7})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ActiveStudents != 4 {
		t.Errorf("expected 4 active students, got %d", resp.ActiveStudents)
	}
	if resp.ArchivedPolls != 7 {
		t.Errorf("expected 7 archived polls, got %d", resp.ArchivedPolls)
	}
	if resp.CurrentPoll == nil || resp.CurrentPoll.Question != "Favorite color?" {
		t.Errorf("unexpected current poll: %+v", resp.CurrentPoll)
	}
}

func TestStatsIdle(t *testing.T) {
	s := newTestServer(&mockCoordinator{stats: types.Stats{}}, &mockArchive{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.CurrentPoll != nil {
		t.Errorf("expected nil current poll when idle, got %+v", resp.CurrentPoll)
	}
}

func TestStatsArchiveFailure(t *testing.T) {
	s := newTestServer(&mockCoordinator{}, &mockArchive{shouldFailRead: true})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Code != http.StatusInternalServerError {
		t.Errorf("expected error code 500 in body, got %d", resp.Code)
	}
}

func TestVersion(t *testing.T) {
	s := newTestServer(&mockCoordinator{}, &mockArchive{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "classpoll v1.0.0") {
		t.Errorf("unexpected version body %q", rec.Body.String())
	}
}

func TestQRCode(t *testing.T) {
	s := newTestServer(&mockCoordinator{}, &mockArchive{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/qr", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected non-empty PNG body")
	}
}
