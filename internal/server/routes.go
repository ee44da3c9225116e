package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/runbookops/runbook-agent/internal/report"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/session"
	"github.com/runbookops/runbook-agent/internal/vectordb"
)

type queryRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type queryResponse struct {
	SessionID string                  `json:"session_id,omitempty"`
	Mode      string                  `json:"mode"`
	State     session.State           `json:"state,omitempty"`
	Response  string                  `json:"response"`
	Retrieved []vectordb.SearchResult `json:"retrieved,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	turn, err := s.bot.Process(r.Context(), req.SessionID, req.Message)
	if err != nil {
		log.Printf("server: query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query processing failed")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		SessionID: turn.SessionID,
		Mode:      string(turn.Mode),
		State:     turn.State,
		Response:  turn.Response,
		Retrieved: turn.Retrieved,
	})
}

func (s *Server) handleHealthReport(w http.ResponseWriter, r *http.Request) {
	books, err := s.source.List(r.Context())
	if err != nil {
		log.Printf("server: health report failed: %v", err)
		writeError(w, http.StatusInternalServerError, "loading runbooks failed")
		return
	}

	reports := make([]score.Report, 0, len(books))
	for _, rb := range books {
		reports = append(reports, s.scorer.Score(rb))
	}

	switch r.URL.Query().Get("format") {
	case "html":
		page, err := report.FleetHTML(reports)
		if err != nil {
			log.Printf("server: rendering report: %v", err)
			writeError(w, http.StatusInternalServerError, "rendering report failed")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(page))
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(report.FleetMarkdown(reports)))
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"summary": score.Summarize(reports),
			"reports": reports,
		})
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.runIngest == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion is not configured")
		return
	}

	result, err := s.runIngest(r.Context())
	if err != nil {
		log.Printf("server: ingestion failed: %v", err)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, e.Error())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"processed":   result.Processed,
		"skipped":     result.Skipped,
		"failed":      result.Failed,
		"errors":      errs,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
