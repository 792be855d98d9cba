package app

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/takeru/kujiin/internal/capture"
	"github.com/takeru/kujiin/internal/classify"
	"github.com/takeru/kujiin/internal/config"
	"github.com/takeru/kujiin/internal/detector"
	"github.com/takeru/kujiin/internal/feature"
	"github.com/takeru/kujiin/internal/jutsu"
	"github.com/takeru/kujiin/internal/seal"
	"github.com/takeru/kujiin/internal/store"
)

const frameInterval = 33 * time.Millisecond

// newTestApp builds an app over a temp store, a mock camera and a mock
// detector, with a trained classifier for the five default seals.
func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := config.Default()
	cfg.Thresholds.KNeighbors = 3

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// Store a handful of extracted samples per seal and train on them
	poses := map[seal.Label][]detector.HandLandmarks{
		seal.Tiger: detector.TigerSealHands(),
		seal.Snake: detector.SnakeSealHands(),
		seal.Ram:   detector.RamSealHands(),
		seal.Bird:  detector.BirdSealHands(),
		seal.Ox:    detector.OxSealHands(),
	}
	for label, hands := range poses {
		vec := feature.Extract(hands)
		if vec == nil {
			t.Fatalf("failed to extract features for %s", label)
		}
		raw, err := json.Marshal(classify.SampleData{Features: vec})
		if err != nil {
			t.Fatalf("marshal sample: %v", err)
		}
		batch := []json.RawMessage{raw, raw, raw, raw, raw}
		if err := s.Samples().Create(string(label), "seed", batch); err != nil {
			t.Fatalf("store samples for %s: %v", label, err)
		}
	}

	a, err := New(Config{
		Conf:     cfg,
		Store:    s,
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}

	accuracy, err := a.TrainFromStore()
	if err != nil {
		t.Fatalf("TrainFromStore failed: %v", err)
	}
	if accuracy < 0.9 {
		t.Fatalf("expected near-perfect accuracy on seed samples, got %v", accuracy)
	}

	return a
}

// performSeal feeds enough frames of one pose to confirm the seal.
func performSeal(a *App, hands []detector.HandLandmarks, start time.Time, frames int) time.Time {
	now := start
	for i := 0; i < frames; i++ {
		a.ProcessFrame(hands, now)
		now = now.Add(frameInterval)
	}
	return now
}

func TestApp_ProcessFrame_FireballSequence(t *testing.T) {
	a := newTestApp(t)

	var seals []seal.Label
	var completions []string
	a.OnSealEvent(func(ev seal.Event) { seals = append(seals, ev.Label) })
	a.OnCompletion(func(c jutsu.Completion) { completions = append(completions, c.Name) })

	hold := a.conf.Thresholds.HoldFrames
	now := time.Now()

	now = performSeal(a, detector.SnakeSealHands(), now, hold)
	now = performSeal(a, detector.RamSealHands(), now, hold)
	performSeal(a, detector.TigerSealHands(), now, hold)

	want := []seal.Label{seal.Snake, seal.Ram, seal.Tiger}
	if len(seals) != len(want) {
		t.Fatalf("expected %d seal events, got %d: %v", len(want), len(seals), seals)
	}
	for i, label := range want {
		if seals[i] != label {
			t.Errorf("seal %d: expected %q, got %q", i, label, seals[i])
		}
	}

	// Shadow Clone's held completion was cancelled by the Tiger that
	// followed within the single-seal delay, leaving only the Fireball.
	if len(completions) != 1 {
		t.Fatalf("expected 1 completion, got %d: %v", len(completions), completions)
	}
	if completions[0] != "katon_goukakyu" {
		t.Errorf("expected katon_goukakyu, got %q", completions[0])
	}
}

func TestApp_ProcessFrame_SingleSealReleasedByTicks(t *testing.T) {
	a := newTestApp(t)

	var completions []string
	a.OnCompletion(func(c jutsu.Completion) { completions = append(completions, c.Name) })

	hold := a.conf.Thresholds.HoldFrames
	now := time.Now()

	// Perform Ram alone, then keep the pipeline ticking with empty frames
	now = performSeal(a, detector.RamSealHands(), now, hold)
	if len(completions) != 0 {
		t.Fatalf("expected completion to be held, got %v", completions)
	}

	delay := a.conf.MatcherOptions().SingleSealDelay
	a.ProcessFrame(nil, now.Add(delay))

	if len(completions) != 1 {
		t.Fatalf("expected 1 completion after the delay, got %d: %v", len(completions), completions)
	}
	if completions[0] != "kage_bunshin" {
		t.Errorf("expected kage_bunshin, got %q", completions[0])
	}
}

func TestApp_ProcessFrame_NoClassifierIsSafe(t *testing.T) {
	cfg := config.Default()
	a, err := New(Config{
		Conf:     cfg,
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}

	var events int
	a.OnSealEvent(func(seal.Event) { events++ })

	// Frames before any training must flow through without effect
	now := time.Now()
	for i := 0; i < 10; i++ {
		a.ProcessFrame(detector.TigerSealHands(), now)
		now = now.Add(frameInterval)
	}

	if events != 0 {
		t.Errorf("expected no seal events without a classifier, got %d", events)
	}
}

func TestApp_Reset(t *testing.T) {
	a := newTestApp(t)

	var completions []string
	a.OnCompletion(func(c jutsu.Completion) { completions = append(completions, c.Name) })

	hold := a.conf.Thresholds.HoldFrames
	now := time.Now()

	// Two thirds of the Fireball, then a reset
	now = performSeal(a, detector.SnakeSealHands(), now, hold)
	now = performSeal(a, detector.RamSealHands(), now, hold)
	a.Reset()

	// Tiger alone completes nothing
	performSeal(a, detector.TigerSealHands(), now, hold)
	if len(completions) != 0 {
		t.Errorf("expected no completions after reset, got %v", completions)
	}

	// Reset on an idle pipeline is a no-op
	a.Reset()
	a.Reset()
}

func TestApp_TrainFromStore_EmptyStore(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	a, err := New(Config{
		Conf:     config.Default(),
		Store:    s,
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}

	if _, err := a.TrainFromStore(); err == nil {
		t.Error("expected error training on an empty store")
	}
	if a.Classifier() != nil {
		t.Error("expected classifier to stay nil after failed training")
	}
}

func TestApp_RegisterCallbacksWhileProcessing(t *testing.T) {
	a := newTestApp(t)

	// Frames flow on one goroutine while callbacks register on another
	done := make(chan struct{})
	go func() {
		defer close(done)
		now := time.Now()
		for i := 0; i < 50; i++ {
			a.ProcessFrame(detector.TigerSealHands(), now)
			now = now.Add(frameInterval)
		}
	}()

	for i := 0; i < 20; i++ {
		a.OnSealEvent(func(seal.Event) {})
		a.OnCompletion(func(jutsu.Completion) {})
	}
	<-done

	// A callback registered after frames have flowed still sees events
	var seals []seal.Label
	a.OnSealEvent(func(ev seal.Event) { seals = append(seals, ev.Label) })
	performSeal(a, detector.SnakeSealHands(), time.Now(), a.conf.Thresholds.HoldFrames)

	if len(seals) != 1 || seals[0] != seal.Snake {
		t.Fatalf("expected one Snake event on the late callback, got %v", seals)
	}
}

func TestApp_SetClassifier_Stub(t *testing.T) {
	a, err := New(Config{
		Conf:     config.Default(),
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}

	// A fixed-answer function stands in for a trained model
	a.SetClassifier(classify.Func(func(feature.Vector) classify.Result {
		return classify.Result{Label: seal.Ox, Confidence: 1.0}
	}))

	var seals []seal.Label
	a.OnSealEvent(func(ev seal.Event) { seals = append(seals, ev.Label) })

	performSeal(a, detector.OxSealHands(), time.Now(), a.conf.Thresholds.HoldFrames)

	if len(seals) != 1 || seals[0] != seal.Ox {
		t.Fatalf("expected one Ox event from the stub classifier, got %v", seals)
	}
}

func TestApp_EnabledStatePersisted(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "toggle.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	newApp := func() *App {
		a, err := New(Config{
			Conf:     config.Default(),
			Store:    s,
			Camera:   capture.NewMockCamera(nil, false),
			Detector: detector.NewMockDetector(),
		})
		if err != nil {
			t.Fatalf("app.New failed: %v", err)
		}
		return a
	}

	// A fresh install starts enabled
	a := newApp()
	a.RestoreEnabled()
	if !a.IsEnabled() {
		t.Fatal("expected fresh install to start enabled")
	}

	// Disabling persists across a restart
	a.SetEnabled(false)
	b := newApp()
	b.RestoreEnabled()
	if b.IsEnabled() {
		t.Error("expected disabled state to survive a restart")
	}
}

func TestApp_SetEnabled(t *testing.T) {
	a := newTestApp(t)

	if a.IsEnabled() {
		t.Error("expected detection disabled by default")
	}
	a.SetEnabled(true)
	if !a.IsEnabled() {
		t.Error("expected detection enabled")
	}
}
