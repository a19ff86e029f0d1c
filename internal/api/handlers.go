package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/core"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
)

// QueryService is what the HTTP layer needs from the core. Satisfied by
// core.RAGService.
type QueryService interface {
	Answer(ctx context.Context, query, sessionID string) (string, []models.Source, string, error)
	Analytics() core.Analytics
	ClearSession(sessionID string)
}

type APIHandler struct {
	service QueryService
}

func NewAPIHandler(service QueryService) *APIHandler {
	return &APIHandler{service: service}
}

type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type QueryResponse struct {
	Answer    string          `json:"answer"`
	Sources   []models.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

func (h *APIHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Field 'query' is required")
		return
	}

	answer, sources, sessionID, err := h.service.Answer(r.Context(), req.Query, req.SessionID)
	if err != nil {
		log.Printf("Error answering query for session %q: %v", req.SessionID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sources == nil {
		sources = []models.Source{}
	}

	writeJSON(w, http.StatusOK, QueryResponse{Answer: answer, Sources: sources, SessionID: sessionID})
}

func (h *APIHandler) CoursesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Analytics())
}

type ClearSessionRequest struct {
	SessionID string `json:"session_id"`
}

func (h *APIHandler) ClearSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req ClearSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Field 'session_id' is required")
		return
	}

	h.service.ClearSession(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
