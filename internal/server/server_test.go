package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/takeru/kujiin/internal/app"
	"github.com/takeru/kujiin/internal/capture"
	"github.com/takeru/kujiin/internal/classify"
	"github.com/takeru/kujiin/internal/config"
	"github.com/takeru/kujiin/internal/detector"
	"github.com/takeru/kujiin/internal/feature"
	"github.com/takeru/kujiin/internal/store"
)

// newTestServer builds a server over a temp store and a mock-backed app.
func newTestServer(t *testing.T) (*Server, *store.Store, *app.App) {
	t.Helper()

	cfg := config.Default()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	a, err := app.New(app.Config{
		Conf:     cfg,
		Store:    s,
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}

	srv := New(Config{
		Conf:  cfg,
		Store: s,
		App:   a,
	})
	return srv, s, a
}

// sampleBody builds a valid POST body with n full-dimension samples.
func sampleBody(t *testing.T, n int) []byte {
	t.Helper()

	features := make([]float64, feature.Dim)
	raw, err := json.Marshal(classify.SampleData{Features: features})
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}

	samples := make([]json.RawMessage, n)
	for i := range samples {
		samples[i] = raw
	}
	body, err := json.Marshal(map[string]interface{}{"samples": samples})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestServer_ListSeals(t *testing.T) {
	srv, s, _ := newTestServer(t)

	// Seed two samples for tora
	if err := s.Samples().Create("tora", "b1", []json.RawMessage{
		json.RawMessage(`{"features":[1]}`),
		json.RawMessage(`{"features":[2]}`),
	}); err != nil {
		t.Fatalf("seed samples: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/seals", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var seals []struct {
		ID          string `json:"id"`
		Display     string `json:"display"`
		SampleCount int    `json:"sample_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &seals); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if len(seals) != 5 {
		t.Fatalf("expected 5 seals, got %d", len(seals))
	}
	// Configured order is preserved
	if seals[0].ID != "tora" || seals[0].Display != "Tiger" {
		t.Errorf("unexpected first seal: %+v", seals[0])
	}
	if seals[0].SampleCount != 2 {
		t.Errorf("expected 2 samples for tora, got %d", seals[0].SampleCount)
	}
	if seals[1].SampleCount != 0 {
		t.Errorf("expected 0 samples for %s, got %d", seals[1].ID, seals[1].SampleCount)
	}
}

func TestServer_CreateSamples(t *testing.T) {
	srv, s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/seals/tora/samples", bytes.NewReader(sampleBody(t, 3)))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Batch string `json:"batch"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Batch == "" {
		t.Error("expected a batch id")
	}
	if resp.Count != 3 {
		t.Errorf("expected count 3, got %d", resp.Count)
	}

	counts, err := s.Samples().Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts["tora"] != 3 {
		t.Errorf("expected 3 stored samples, got %d", counts["tora"])
	}
}

func TestServer_CreateSamples_Rejections(t *testing.T) {
	srv, _, _ := newTestServer(t)

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown seal", "/api/seals/saru/samples", `{"samples":[{"features":[1]}]}`, http.StatusNotFound},
		{"empty batch", "/api/seals/tora/samples", `{"samples":[]}`, http.StatusBadRequest},
		{"malformed body", "/api/seals/tora/samples", `{nope`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestServer_ListAndDeleteSamples(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// Create, list, delete, list again
	req := httptest.NewRequest(http.MethodPost, "/api/seals/mi/samples", bytes.NewReader(sampleBody(t, 2)))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/seals/mi/samples", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var samples []store.Sample
	if err := json.Unmarshal(w.Body.Bytes(), &samples); err != nil {
		t.Fatalf("failed to parse samples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/seals/mi/samples", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/seals/mi/samples", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	var after []store.Sample
	if err := json.Unmarshal(w.Body.Bytes(), &after); err != nil {
		t.Fatalf("failed to parse samples: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("expected no samples after delete, got %d", len(after))
	}
}

func TestServer_Train(t *testing.T) {
	srv, _, a := newTestServer(t)

	// Training an empty store fails
	req := httptest.NewRequest(http.MethodPost, "/api/train", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for empty store, got %d", w.Code)
	}

	// Seed samples for two seals, then train
	for _, id := range []string{"tora", "mi"} {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/seals/%s/samples", id), bytes.NewReader(sampleBody(t, 3)))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("seed %s: expected 201, got %d", id, w.Code)
		}
	}

	req = httptest.NewRequest(http.MethodPost, "/api/train", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Accuracy float64 `json:"accuracy"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Accuracy < 0 || resp.Accuracy > 1 {
		t.Errorf("accuracy outside [0,1]: %v", resp.Accuracy)
	}

	if a.Classifier() == nil {
		t.Error("expected app classifier to be set after training")
	}
}

func TestServer_Reset(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestServer_UptimeGrows(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.start = time.Now().Add(-time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	uptime, ok := body["uptime"].(string)
	if !ok || uptime == "" {
		t.Errorf("expected a non-empty uptime string, got %v", body["uptime"])
	}
}
