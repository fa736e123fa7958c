package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pagetrail/pagetrail/internal/capture"
	"github.com/pagetrail/pagetrail/internal/capture/inmemory"
	"github.com/pagetrail/pagetrail/internal/embed"
	"github.com/pagetrail/pagetrail/internal/pipeline"
)

type stubSearch struct {
	results []pipeline.Result
	err     error
}

func (s *stubSearch) Query(ctx context.Context, text string, topK int, minSimilarity float64) ([]pipeline.Result, error) {
	return s.results, s.err
}

func newTestServer(t *testing.T, blacklist []string, search SearchService) *Server {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	rec := capture.NewRecorder(inmemory.NewStore(), capture.NewBlacklist(blacklist), 0, 0, logger)
	return New(rec, search, logger)
}

func doJSON(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	return rec
}

func TestPostVisitRecords(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := doJSON(srv, http.MethodPost, "/api/visits", `{"url":"https://a.example","title":"A","ts":1000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["session_id"] == "" {
		t.Error("response must carry the session id")
	}

	rec = doJSON(srv, http.MethodGet, "/api/sessions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var sessions []capture.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || len(sessions[0].Pages) != 1 {
		t.Fatalf("sessions = %+v, want one session with one page", sessions)
	}
}

func TestPostVisitValidation(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	if rec := doJSON(srv, http.MethodPost, "/api/visits", `{"title":"no url","ts":1000}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing url: status = %d, want 400", rec.Code)
	}
	if rec := doJSON(srv, http.MethodPost, "/api/visits", `{"url":"https://a.example"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing ts: status = %d, want 400", rec.Code)
	}
}

func TestPostVisitBlocked(t *testing.T) {
	srv := newTestServer(t, []string{"*.bank.com"}, nil)

	rec := doJSON(srv, http.MethodPost, "/api/visits", `{"url":"https://secure.bank.com/login","ts":1000}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 for blocked visit", rec.Code)
	}

	rec = doJSON(srv, http.MethodGet, "/api/sessions", "")
	if strings.Contains(rec.Body.String(), "bank.com") {
		t.Error("blocked URL must never be stored")
	}
}

func TestExportSessions(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	_ = doJSON(srv, http.MethodPost, "/api/visits", `{"url":"https://a.example","title":"A","ts":1000}`)

	rec := doJSON(srv, http.MethodGet, "/api/sessions/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "sessions.json") {
		t.Errorf("Content-Disposition = %q", got)
	}
	var sessions []capture.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("export is not a session array: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("exported %d sessions, want 1", len(sessions))
	}
}

func TestClearSessions(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	_ = doJSON(srv, http.MethodPost, "/api/visits", `{"url":"https://a.example","ts":1000}`)

	if rec := doJSON(srv, http.MethodDelete, "/api/sessions", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec := doJSON(srv, http.MethodGet, "/api/sessions", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("sessions after clear = %s, want []", rec.Body.String())
	}
}

func TestPostSearch(t *testing.T) {
	search := &stubSearch{results: []pipeline.Result{{
		URL:        "https://a.example",
		Title:      "A",
		Similarity: 0.9,
	}}}
	srv := newTestServer(t, nil, search)

	rec := doJSON(srv, http.MethodPost, "/api/search", `{"query":"golang"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results []pipeline.Result `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].URL != "https://a.example" {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestPostSearchProviderOutage(t *testing.T) {
	search := &stubSearch{err: &embed.ProviderError{Attempts: 3, Err: errors.New("connection refused")}}
	srv := newTestServer(t, nil, search)

	rec := doJSON(srv, http.MethodPost, "/api/search", `{"query":"golang"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 when the provider is down", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "embedding provider unavailable") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestPostSearchNotConfigured(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	if rec := doJSON(srv, http.MethodPost, "/api/search", `{"query":"golang"}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 with no search service", rec.Code)
	}
}

func TestPostSearchRequiresQuery(t *testing.T) {
	srv := newTestServer(t, nil, &stubSearch{})
	if rec := doJSON(srv, http.MethodPost, "/api/search", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for empty query", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	if rec := doJSON(srv, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}
