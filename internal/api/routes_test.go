package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clipbot/internal/history"
	"clipbot/internal/logging"
)

type stubBackend struct {
	status  DaemonStatus
	runs    []history.Run
	err     error
	queries []HistoryQuery
}

func (s *stubBackend) Status(context.Context) DaemonStatus {
	return s.status
}

func (s *stubBackend) History(_ context.Context, query HistoryQuery) ([]history.Run, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.runs, nil
}

func newTestRouter(backend *stubBackend, token string) http.Handler {
	return NewRouter(RouterConfig{
		Backend:   backend,
		Token:     token,
		StartTime: time.Now().Add(-time.Minute),
		Logger:    logging.NewNop(),
	})
}

func serve(handler http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsOpen(t *testing.T) {
	handler := newTestRouter(&stubBackend{}, "secret")
	rec := serve(handler, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.UptimeS < 59 {
		t.Fatalf("unexpected health body: %+v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	handler := newTestRouter(&stubBackend{}, "secret")

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{name: "status without token", path: "/status", want: http.StatusUnauthorized},
		{name: "status wrong token", path: "/status", token: "nope", want: http.StatusUnauthorized},
		{name: "status with token", path: "/status", token: "secret", want: http.StatusOK},
		{name: "history without token", path: "/history", want: http.StatusUnauthorized},
		{name: "history with token", path: "/history", token: "secret", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(handler, tt.path, tt.token)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestEmptyTokenDisablesAuth(t *testing.T) {
	backend := &stubBackend{status: DaemonStatus{Running: true, BotUsername: "clip_bot"}}
	rec := serve(newTestRouter(backend, ""), "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body DaemonStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Running || body.BotUsername != "clip_bot" {
		t.Fatalf("unexpected status body: %+v", body)
	}
}

func TestHistoryQueryParsing(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantQuery HistoryQuery
	}{
		{name: "defaults", path: "/history", wantCode: http.StatusOK, wantQuery: HistoryQuery{Limit: defaultHistoryLimit}},
		{name: "explicit limit", path: "/history?limit=5", wantCode: http.StatusOK, wantQuery: HistoryQuery{Limit: 5}},
		{name: "limit capped", path: "/history?limit=100000", wantCode: http.StatusOK, wantQuery: HistoryQuery{Limit: maxHistoryLimit}},
		{name: "per user", path: "/history/77?limit=3", wantCode: http.StatusOK, wantQuery: HistoryQuery{UserID: 77, Limit: 3}},
		{name: "bad limit", path: "/history?limit=zero", wantCode: http.StatusBadRequest},
		{name: "negative limit", path: "/history?limit=-1", wantCode: http.StatusBadRequest},
		{name: "bad user", path: "/history/abc", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{runs: []history.Run{{ID: "r1", UserID: 77, EndSeconds: 5}}}
			rec := serve(newTestRouter(backend, ""), tt.path, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d (%s)", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				if len(backend.queries) != 0 {
					t.Fatalf("backend should not be queried on bad input")
				}
				return
			}
			if len(backend.queries) != 1 || backend.queries[0] != tt.wantQuery {
				t.Fatalf("expected query %+v, got %+v", tt.wantQuery, backend.queries)
			}
			var body HistoryResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Runs) != 1 || body.Runs[0].ID != "r1" || body.Runs[0].End != "00:00:05" {
				t.Fatalf("unexpected runs: %+v", body.Runs)
			}
		})
	}
}

func TestHistoryBackendErrorIs500(t *testing.T) {
	backend := &stubBackend{err: errors.New("database is locked")}
	rec := serve(newTestRouter(backend, ""), "/history", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}
