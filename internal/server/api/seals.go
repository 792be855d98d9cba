// Package api implements the JSON handlers for the Kujiin HTTP API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/takeru/kujiin/internal/config"
	"github.com/takeru/kujiin/internal/store"
)

// SealsHandler serves the seal vocabulary and its training samples.
type SealsHandler struct {
	store *store.Store
	conf  config.Config
	vocab map[string]bool
}

// SealInfo is the wire form of one vocabulary entry.
type SealInfo struct {
	ID          string `json:"id"`
	Display     string `json:"display"`
	Hands       int    `json:"hands"`
	SampleCount int    `json:"sample_count"`
}

// CreateSamplesRequest carries a batch of feature vectors to store for
// one seal.
type CreateSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

// CreateSamplesResponse reports the stored batch.
type CreateSamplesResponse struct {
	Batch string `json:"batch"`
	Count int    `json:"count"`
}

// NewSealsHandler creates a SealsHandler over the given store and
// configured vocabulary.
func NewSealsHandler(s *store.Store, conf config.Config) *SealsHandler {
	vocab := make(map[string]bool, len(conf.Seals))
	for _, entry := range conf.Seals {
		vocab[entry.ID] = true
	}
	return &SealsHandler{store: s, conf: conf, vocab: vocab}
}

// List handles GET /api/seals. It returns the vocabulary in configured
// order with per-seal sample counts.
func (h *SealsHandler) List(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Samples().Counts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count samples")
		return
	}

	infos := make([]SealInfo, len(h.conf.Seals))
	for i, entry := range h.conf.Seals {
		hands := entry.Hands
		if hands == 0 {
			hands = 2
		}
		infos[i] = SealInfo{
			ID:          entry.ID,
			Display:     entry.Display,
			Hands:       hands,
			SampleCount: counts[entry.ID],
		}
	}

	writeJSON(w, http.StatusOK, infos)
}

// ListSamples handles GET /api/seals/{seal}/samples.
func (h *SealsHandler) ListSamples(w http.ResponseWriter, r *http.Request) {
	sealID := chi.URLParam(r, "seal")
	if !h.vocab[sealID] {
		writeError(w, http.StatusNotFound, "Unknown seal")
		return
	}

	samples, err := h.store.Samples().GetBySeal(sealID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load samples")
		return
	}
	if samples == nil {
		samples = []store.Sample{}
	}

	writeJSON(w, http.StatusOK, samples)
}

// CreateSamples handles POST /api/seals/{seal}/samples. The batch is
// stored atomically under a fresh batch id.
func (h *SealsHandler) CreateSamples(w http.ResponseWriter, r *http.Request) {
	sealID := chi.URLParam(r, "seal")
	if !h.vocab[sealID] {
		writeError(w, http.StatusNotFound, "Unknown seal")
		return
	}

	var req CreateSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "No samples provided")
		return
	}

	batch := uuid.New().String()
	if err := h.store.Samples().Create(sealID, batch, req.Samples); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store samples")
		return
	}

	writeJSON(w, http.StatusCreated, CreateSamplesResponse{
		Batch: batch,
		Count: len(req.Samples),
	})
}

// DeleteSamples handles DELETE /api/seals/{seal}/samples. It removes
// every stored sample for the seal.
func (h *SealsHandler) DeleteSamples(w http.ResponseWriter, r *http.Request) {
	sealID := chi.URLParam(r, "seal")
	if !h.vocab[sealID] {
		writeError(w, http.StatusNotFound, "Unknown seal")
		return
	}

	if err := h.store.Samples().DeleteBySeal(sealID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
