package api

import (
	"net/http"

	"github.com/ayusman/handsign/internal/store"
	"github.com/ayusman/handsign/internal/vocab"
)

// SignsHandler lists the vocabulary with the number of stored samples per sign.
type SignsHandler struct {
	store *store.Store
	vocab *vocab.Vocabulary
}

// NewSignsHandler creates a new SignsHandler. s may be nil, in which case
// every count is zero.
func NewSignsHandler(s *store.Store, v *vocab.Vocabulary) *SignsHandler {
	return &SignsHandler{store: s, vocab: v}
}

type signResponse struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Samples int    `json:"samples"`
}

type listSignsResponse struct {
	Signs []signResponse `json:"signs"`
}

// ServeHTTP handles GET /api/signs.
func (h *SignsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts := make([]int, h.vocab.Len())
	if h.store != nil {
		c, err := h.store.Samples().CountBySign(h.vocab.Len())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to count samples")
			return
		}
		counts = c
	}

	response := listSignsResponse{Signs: make([]signResponse, 0, h.vocab.Len())}
	for i, name := range h.vocab.Names() {
		response.Signs = append(response.Signs, signResponse{
			Index:   i,
			Name:    name,
			Samples: counts[i],
		})
	}

	writeJSON(w, http.StatusOK, response)
}
