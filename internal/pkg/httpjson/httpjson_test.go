package httpjson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

type echo struct {
	Query string `json:"query"`
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		var in echo
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer server.Close()

	c := New("test", nil)
	header := http.Header{"Authorization": []string{"Bearer secret"}}

	var out echo
	if err := c.Post(context.Background(), server.URL, header, echo{Query: "nid"}, &out); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if out.Query != "nid" {
		t.Errorf("out.Query = %q, want nid", out.Query)
	}
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "passport" {
			t.Errorf("q = %q", r.URL.Query().Get("q"))
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{"query":"ok"}`))
	}))
	defer server.Close()

	var out echo
	if err := New("test", nil).Get(context.Background(), server.URL+"?q=passport", nil, &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.Query != "ok" {
		t.Errorf("out.Query = %q", out.Query)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  string
		transient bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, apperrors.CodeUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, "", apperrors.CodeRateLimited, true},
		{"server error", http.StatusBadGateway, "upstream", apperrors.CodeUnavailable, true},
		{"bad request", http.StatusBadRequest, "", apperrors.CodeValidation, false},
		{"malformed body", http.StatusOK, "{not json", apperrors.CodeBadResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var out echo
			err := New("test", nil).Get(context.Background(), server.URL, nil, &out)
			if got := apperrors.Code(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err=%v)", got, tt.wantCode, err)
			}
			if got := apperrors.IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient = %v, want %v", got, tt.transient)
			}
		})
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := New("slow", nil).Get(ctx, server.URL, nil, nil)
	if apperrors.Code(err) != apperrors.CodeTimeout {
		t.Fatalf("code = %q, want TIMEOUT (err=%v)", apperrors.Code(err), err)
	}
	if !apperrors.IsTransient(err) {
		t.Error("deadline should be transient")
	}
}
