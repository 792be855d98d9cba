// Package app wires the Kujiin recognition pipeline together: camera
// frames in, stable seal events and jutsu completions out.
package app

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/takeru/kujiin/internal/capture"
	"github.com/takeru/kujiin/internal/classify"
	"github.com/takeru/kujiin/internal/config"
	"github.com/takeru/kujiin/internal/detector"
	"github.com/takeru/kujiin/internal/effect"
	"github.com/takeru/kujiin/internal/jutsu"
	"github.com/takeru/kujiin/internal/seal"
	"github.com/takeru/kujiin/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeout is the time to wait before switching back to idle mode.
	IdleTimeout = 2 * time.Second
	// EffectTimeout bounds one effect pack execution.
	EffectTimeout = 5 * time.Second
)

// Config holds configuration options for the application.
type Config struct {
	Conf  config.Config
	Store *store.Store
	// Camera overrides the default gocv camera when set (tests).
	Camera capture.Camera
	// Detector overrides detector selection when set (tests).
	Detector     detector.Detector
	MotionThresh float64
}

// App owns the detection pipeline. The pipeline itself is frame
// synchronous: each frame runs normalizer, classifier, debouncer and
// matcher to completion before the next frame starts.
type App struct {
	conf       config.Config
	store      *store.Store
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	effectMgr  *effect.Manager
	effectExec *effect.Executor

	// classifier is swappable (retraining) while the pipeline runs.
	classifier classify.Classifier

	// debouncer and matcher are mutated by ProcessFrame and Reset only,
	// both under pmu.
	debouncer *seal.Debouncer
	matcher   *jutsu.Matcher
	pmu       sync.Mutex

	onSeal       []func(seal.Event)
	onCompletion []func(jutsu.Completion)

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// New creates a new App instance with the given configuration.
// The jutsu list is validated here; an invalid configuration fails
// startup rather than the first frame.
func New(cfg Config) (*App, error) {
	matcher, err := jutsu.NewMatcher(cfg.Conf.Definitions(), cfg.Conf.MatcherOptions())
	if err != nil {
		return nil, err
	}

	motionThreshold := cfg.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	camera := cfg.Camera
	if camera == nil {
		camera = capture.NewCamera(cfg.Conf.CameraID)
	}

	a := &App{
		conf:       cfg.Conf,
		store:      cfg.Store,
		camera:     camera,
		motion:     capture.NewMotionDetector(motionThreshold),
		effectMgr:  effect.NewManager(cfg.Conf.EffectDir),
		effectExec: effect.NewExecutor(EffectTimeout),
		debouncer:  seal.NewDebouncer(cfg.Conf.DebounceConfig()),
		matcher:    matcher,
	}

	if cfg.Detector != nil {
		a.detector = cfg.Detector
	} else if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// settingEnabled is the settings key for the detection toggle.
const settingEnabled = "detection_enabled"

// SetEnabled enables or disables seal detection and persists the choice
// so it survives a restart.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.store == nil {
		return
	}
	value := "false"
	if enabled {
		value = "true"
	}
	if err := a.store.Settings().Set(settingEnabled, value); err != nil {
		log.Printf("Failed to persist enabled state: %v", err)
	}
}

// RestoreEnabled applies the persisted detection toggle. A fresh
// install, or an app without a store, starts enabled.
func (a *App) RestoreEnabled() {
	enabled := true
	if a.store != nil {
		if v, err := a.store.Settings().Get(settingEnabled); err == nil {
			enabled = v == "true"
		}
	}
	a.SetEnabled(enabled)
}

// IsEnabled returns whether seal detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// SetClassifier swaps the seal classifier, e.g. after retraining.
func (a *App) SetClassifier(c classify.Classifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.classifier = c
}

// Classifier returns the current seal classifier, nil before training.
func (a *App) Classifier() classify.Classifier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.classifier
}

// OnSealEvent registers a callback invoked for every stable seal
// event. Safe to call while the pipeline runs.
func (a *App) OnSealEvent(fn func(seal.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSeal = append(a.onSeal, fn)
}

// OnCompletion registers a callback invoked for every jutsu
// completion. Safe to call while the pipeline runs.
func (a *App) OnCompletion(fn func(jutsu.Completion)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCompletion = append(a.onCompletion, fn)
}

// TrainFromStore rebuilds the classifier from the stored samples and
// returns its leave-one-out accuracy.
func (a *App) TrainFromStore() (float64, error) {
	grouped, err := a.store.Samples().GetAll()
	if err != nil {
		return 0, err
	}

	byLabel := make(map[seal.Label][]json.RawMessage, len(grouped))
	for id, raws := range grouped {
		byLabel[seal.Label(id)] = raws
	}

	trainer := classify.NewTrainer(a.conf.Thresholds.KNeighbors)
	knn, err := trainer.Train(byLabel)
	if err != nil {
		return 0, err
	}

	accuracy := knn.LeaveOneOutAccuracy()
	a.SetClassifier(knn)
	log.Printf("Trained classifier on %d samples (leave-one-out accuracy %.3f)", knn.Len(), accuracy)
	return accuracy, nil
}

// Reset clears the debouncer and every sequence tracker immediately.
// Safe to call while the pipeline runs; resetting an idle pipeline is a
// no-op.
func (a *App) Reset() {
	a.pmu.Lock()
	defer a.pmu.Unlock()
	a.debouncer.Reset()
	a.matcher.Reset()
}

// DiscoverEffects scans the effect pack directory.
func (a *App) DiscoverEffects() error {
	return a.effectMgr.Discover()
}

// Effects returns the effect pack manager.
func (a *App) Effects() *effect.Manager {
	return a.effectMgr
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Start begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the detection pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}
