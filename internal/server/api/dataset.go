package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/handsign/internal/store"
	"github.com/ayusman/handsign/internal/vocab"
)

// DatasetHandler reports what has been collected and lets a session's samples
// be discarded.
type DatasetHandler struct {
	store *store.Store
	vocab *vocab.Vocabulary
}

// NewDatasetHandler creates a new DatasetHandler with the given store.
func NewDatasetHandler(s *store.Store, v *vocab.Vocabulary) *DatasetHandler {
	return &DatasetHandler{store: s, vocab: v}
}

type sessionResponse struct {
	ID          string `json:"id"`
	TargetCount int    `json:"target_count"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at,omitempty"`
}

type datasetResponse struct {
	Total    int               `json:"total"`
	Counts   map[string]int    `json:"counts"`
	Sessions []sessionResponse `json:"sessions"`
}

// ServeHTTP routes requests.
// Expected paths: /api/dataset and /api/dataset/sessions/{id}
func (h *DatasetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/dataset")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.summary(w, r)
		return
	}

	id, ok := strings.CutPrefix(path, "sessions/")
	if !ok || id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		h.deleteSession(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// summary handles GET /api/dataset.
func (h *DatasetHandler) summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Samples().CountBySign(h.vocab.Len())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count samples")
		return
	}
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := datasetResponse{
		Counts:   make(map[string]int, len(counts)),
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for i, n := range counts {
		name, _ := h.vocab.Name(i)
		response.Counts[name] = n
		response.Total += n
	}
	for _, s := range sessions {
		sr := sessionResponse{
			ID:          s.ID,
			TargetCount: s.TargetCount,
			Status:      string(s.Status),
			StartedAt:   s.StartedAt.Format(time.RFC3339),
		}
		if s.FinishedAt != nil {
			sr.FinishedAt = s.FinishedAt.Format(time.RFC3339)
		}
		response.Sessions = append(response.Sessions, sr)
	}

	writeJSON(w, http.StatusOK, response)
}

// deleteSession handles DELETE /api/dataset/sessions/{id}. The session row
// stays, marked abandoned, so the history is kept.
func (h *DatasetHandler) deleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	deleted, err := h.store.Samples().DeleteBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}
	if err := h.store.Sessions().Finish(id, store.SessionAbandoned); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
