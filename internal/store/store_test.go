package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rawVec(values ...float64) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{"features": values})
	return data
}

func TestSampleRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Samples()

	batch := []json.RawMessage{rawVec(1, 2), rawVec(3, 4), rawVec(5, 6)}
	if err := repo.Create("tora", "batch-1", batch); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	samples, err := repo.GetBySeal("tora")
	if err != nil {
		t.Fatalf("GetBySeal failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}

	// Order and per-batch indexing are preserved
	for i, sample := range samples {
		if sample.Seal != "tora" {
			t.Errorf("sample %d: expected seal tora, got %q", i, sample.Seal)
		}
		if sample.Batch != "batch-1" {
			t.Errorf("sample %d: expected batch batch-1, got %q", i, sample.Batch)
		}
		if sample.SampleIndex != i {
			t.Errorf("sample %d: expected index %d, got %d", i, i, sample.SampleIndex)
		}
	}

	if string(samples[0].Data) != string(batch[0]) {
		t.Errorf("expected data preserved, got %s", samples[0].Data)
	}
}

func TestSampleRepository_GetBySealEmpty(t *testing.T) {
	s := newTestStore(t)

	samples, err := s.Samples().GetBySeal("tora")
	if err != nil {
		t.Fatalf("GetBySeal failed: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("expected no samples, got %d", len(samples))
	}
}

func TestSampleRepository_GetAllGroupsBySeal(t *testing.T) {
	s := newTestStore(t)
	repo := s.Samples()

	if err := repo.Create("tora", "b1", []json.RawMessage{rawVec(1), rawVec(2)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create("mi", "b2", []json.RawMessage{rawVec(3)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	grouped, err := repo.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	if len(grouped["tora"]) != 2 {
		t.Errorf("expected 2 tora samples, got %d", len(grouped["tora"]))
	}
	if len(grouped["mi"]) != 1 {
		t.Errorf("expected 1 mi sample, got %d", len(grouped["mi"]))
	}
}

func TestSampleRepository_Counts(t *testing.T) {
	s := newTestStore(t)
	repo := s.Samples()

	if err := repo.Create("tora", "b1", []json.RawMessage{rawVec(1), rawVec(2), rawVec(3)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create("hitsuji", "b2", []json.RawMessage{rawVec(4)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	counts, err := repo.Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}

	if counts["tora"] != 3 {
		t.Errorf("expected 3 tora samples, got %d", counts["tora"])
	}
	if counts["hitsuji"] != 1 {
		t.Errorf("expected 1 hitsuji sample, got %d", counts["hitsuji"])
	}
	if counts["mi"] != 0 {
		t.Errorf("expected 0 mi samples, got %d", counts["mi"])
	}
}

func TestSampleRepository_DeleteBySeal(t *testing.T) {
	s := newTestStore(t)
	repo := s.Samples()

	if err := repo.Create("tora", "b1", []json.RawMessage{rawVec(1)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create("mi", "b2", []json.RawMessage{rawVec(2)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.DeleteBySeal("tora"); err != nil {
		t.Fatalf("DeleteBySeal failed: %v", err)
	}

	counts, err := repo.Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts["tora"] != 0 {
		t.Errorf("expected tora samples deleted, got %d", counts["tora"])
	}
	if counts["mi"] != 1 {
		t.Errorf("expected mi samples untouched, got %d", counts["mi"])
	}
}

func TestSettingsRepository_GetSet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	// Missing key
	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Set and read back
	if err := repo.Set("camera_id", "1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, err := repo.Get("camera_id")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "1" {
		t.Errorf("expected value 1, got %q", value)
	}

	// Upsert replaces
	if err := repo.Set("camera_id", "2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, err = repo.Get("camera_id")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "2" {
		t.Errorf("expected value 2 after upsert, got %q", value)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Samples().Create("tora", "b1", []json.RawMessage{rawVec(1)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	s.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	counts, err := reopened.Samples().Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts["tora"] != 1 {
		t.Errorf("expected data to survive reopen, got %d", counts["tora"])
	}
}
