package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/govai-bd/govai/internal/pipeline"
	appctx "github.com/govai-bd/govai/internal/pkg/context"
	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/security"
	"github.com/govai-bd/govai/internal/querylog"
)

const maxBodyBytes = 64 << 10

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id,omitempty"`

	// IncludeSources defaults to true.
	IncludeSources *bool `json:"include_sources,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// LogsResponse is returned by GET /v1/admin/logs.
type LogsResponse struct {
	Logs  []querylog.Record `json:"logs"`
	Count int               `json:"count"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "GovAI Bangladesh API",
		"version":     s.cfg.Version,
		"description": "AI-powered government information assistant for Bangladesh",
		"endpoints": map[string]string{
			"health":  "/healthz",
			"query":   "/v1/query (POST)",
			"stats":   "/v1/admin/stats",
			"logs":    "/v1/admin/logs",
			"metrics": "/metrics",
		},
		"backends": s.svc.Info(),
		"message":  "স্বাগতম GovAI Bangladesh এ - আপনার সরকারি তথ্য সহায়ক",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "GovAI Bangladesh API is running",
		Version: s.cfg.Version,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.WriteErrorWithStatus(w, http.StatusRequestEntityTooLarge,
				apperrors.ValidationError("request body too large"))
			return
		}
		apperrors.WriteError(w, apperrors.ValidationError("invalid JSON body"))
		return
	}

	include := true
	if req.IncludeSources != nil {
		include = *req.IncludeSources
	}

	resp, err := s.svc.Process(r.Context(), pipeline.Request{
		Query:          req.Query,
		UserID:         req.UserID,
		ClientAddr:     appctx.ClientAddr(r.Context()),
		IncludeSources: include,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	window, err := querylog.ParseWindow(q.Get("window"))
	if err != nil {
		apperrors.WriteError(w, apperrors.ValidationError(err.Error()))
		return
	}
	topK, err := security.ParseTopK(q.Get("top"))
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	stats, err := s.svc.Stats(r.Context(), window, topK)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := security.ParseLogLimit(r.URL.Query().Get("limit"))
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	logs, err := s.svc.RecentLogs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []querylog.Record{}
	}
	writeJSON(w, http.StatusOK, LogsResponse{Logs: logs, Count: len(logs)})
}

// writeError logs server-side failures before writing a sanitized body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus() >= 500 {
		s.log.WithContext(r.Context()).Error("Request failed",
			"path", r.URL.Path,
			"error", err,
		)
	}
	apperrors.WriteError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers already sent
	_ = json.NewEncoder(w).Encode(v)
}
