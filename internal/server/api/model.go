package api

import (
	"net/http"

	"github.com/ayusman/handsign/internal/classifier"
)

// ModelHandler reports the loaded model's metadata.
type ModelHandler struct {
	meta *classifier.Metadata
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(meta *classifier.Metadata) *ModelHandler {
	return &ModelHandler{meta: meta}
}

// ServeHTTP handles GET /api/model/info.
func (h *ModelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.meta == nil {
		writeError(w, http.StatusNotFound, "No model loaded")
		return
	}
	writeJSON(w, http.StatusOK, h.meta)
}
