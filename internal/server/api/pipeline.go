package api

import (
	"net/http"

	"github.com/takeru/kujiin/internal/app"
)

// PipelineHandler exposes pipeline-level operations: retraining the
// classifier and resetting recognition state.
type PipelineHandler struct {
	app *app.App
}

// TrainResponse reports the result of a training run.
type TrainResponse struct {
	Accuracy float64 `json:"accuracy"`
}

// NewPipelineHandler creates a PipelineHandler for the given app.
func NewPipelineHandler(a *app.App) *PipelineHandler {
	return &PipelineHandler{app: a}
}

// Train handles POST /api/train. It rebuilds the classifier from the
// stored samples and swaps it into the running pipeline.
func (h *PipelineHandler) Train(w http.ResponseWriter, r *http.Request) {
	accuracy, err := h.app.TrainFromStore()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TrainResponse{Accuracy: accuracy})
}

// Reset handles POST /api/reset. It clears the debouncer and every
// sequence tracker.
func (h *PipelineHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.app.Reset()
	w.WriteHeader(http.StatusNoContent)
}
