package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/govai-bd/govai/internal/pipeline"
	"github.com/govai-bd/govai/internal/querylog"
	"github.com/govai-bd/govai/internal/search"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:8000")
	}
	if cfg.Timeout != 3*time.Minute {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, 3*time.Minute)
	}
}

func TestClientNew(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		c := New(Config{})
		if c.baseURL != "http://localhost:8000" {
			t.Errorf("baseURL = %q", c.baseURL)
		}
		if !strings.HasPrefix(c.UserID(), "cli-") {
			t.Errorf("UserID = %q, want cli- prefix", c.UserID())
		}
	})

	t.Run("custom config", func(t *testing.T) {
		c := New(Config{BaseURL: "http://govai:9000/", UserID: "u1"})
		if c.baseURL != "http://govai:9000" {
			t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
		}
		if c.UserID() != "u1" {
			t.Errorf("UserID = %q", c.UserID())
		}
	})
}

func TestDefaultUserID_Stable(t *testing.T) {
	if DefaultUserID() != DefaultUserID() {
		t.Error("DefaultUserID should be deterministic")
	}
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" || r.Method != http.MethodGet {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy", Version: "1.0.0"})
	}))
	defer server.Close()

	resp, err := New(Config{BaseURL: server.URL}).Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "healthy" || resp.Version != "1.0.0" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestClientAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/query" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("queries must not carry the admin token")
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req["query"] != "passport korte ki ki lagbe?" || req["user_id"] != "u1" || req["include_sources"] != true {
			t.Errorf("request = %v", req)
		}

		_ = json.NewEncoder(w).Encode(pipeline.Response{
			Query:    "passport korte ki ki lagbe?",
			Language: "banglish",
			Answer:   "জাতীয় পরিচয়পত্র লাগবে।",
			Sources:  []search.Result{{Title: "DIP", URL: "https://www.dip.gov.bd/"}},
		})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, UserID: "u1", AdminToken: "tok"})
	resp, err := c.Ask(context.Background(), "passport korte ki ki lagbe?", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Language != "banglish" || len(resp.Sources) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestClientStatsAndLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "UNAUTHORIZED", "message": "unauthorized"})
			return
		}
		switch r.URL.Path {
		case "/v1/admin/stats":
			if r.URL.Query().Get("window") != "7d" || r.URL.Query().Get("top") != "3" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode(querylog.Stats{Window: "7d", TotalQueries: 12})
		case "/v1/admin/logs":
			if r.URL.Query().Get("limit") != "2" {
				t.Errorf("limit = %s", r.URL.Query().Get("limit"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"logs":  []querylog.Record{{ID: "a"}, {ID: "b"}},
				"count": 2,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, AdminToken: "tok"})

	stats, err := c.Stats(context.Background(), "7d", 3)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalQueries != 12 {
		t.Errorf("TotalQueries = %d", stats.TotalQueries)
	}

	logs, err := c.Logs(context.Background(), 2)
	if err != nil {
		t.Fatalf("Logs() error = %v", err)
	}
	if len(logs) != 2 || logs[0].ID != "a" {
		t.Errorf("logs = %+v", logs)
	}

	_, err = New(Config{BaseURL: server.URL}).Stats(context.Background(), "", 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Code != "UNAUTHORIZED" {
		t.Errorf("err = %v, want UNAUTHORIZED APIError", err)
	}
}

func TestClientErrorResponse(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantAPI  bool
		wantCode string
	}{
		{"api error", http.StatusBadRequest, `{"error":"x","code":"INVALID_QUERY","message":"প্রশ্ন খালি রাখা যাবে না"}`, true, "INVALID_QUERY"},
		{"plain text", http.StatusBadGateway, "bad gateway", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(Config{BaseURL: server.URL}).Ask(context.Background(), "", true)
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) != tt.wantAPI {
				t.Fatalf("APIError = %v, want %v (%v)", !tt.wantAPI, tt.wantAPI, err)
			}
			if tt.wantAPI && apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}
