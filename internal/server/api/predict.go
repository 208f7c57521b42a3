package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/inference"
	"github.com/ayusman/handsign/internal/presenter"
)

// maxPredictBody bounds the request body of a prediction.
const maxPredictBody = 64 << 10

// PredictHandler classifies landmarks posted by a client that runs its own
// hand detector.
type PredictHandler struct {
	engine *inference.Engine
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(e *inference.Engine) *PredictHandler {
	return &PredictHandler{engine: e}
}

type predictRequest struct {
	Landmarks []detector.Point3D `json:"landmarks"`
}

type predictResponse struct {
	Hand       bool                 `json:"hand"`
	Candidates inference.Prediction `json:"candidates"`
	Decision   *presenter.Decision  `json:"decision,omitempty"`
}

// ServeHTTP handles POST /api/predict. An empty landmark list means no hand.
func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var hand *detector.HandLandmarks
	if len(req.Landmarks) > 0 {
		var err error
		hand, err = detector.FromPoints(req.Landmarks)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	pred, err := h.engine.Classify(hand)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Classification failed")
		return
	}

	response := predictResponse{Hand: pred != nil, Candidates: pred}
	if response.Candidates == nil {
		response.Candidates = inference.Prediction{}
	}
	if d, ok := presenter.Present(pred); ok {
		response.Decision = &d
	}

	writeJSON(w, http.StatusOK, response)
}
