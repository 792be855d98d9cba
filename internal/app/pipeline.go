package app

import (
	"log"
	"time"

	"github.com/takeru/kujiin/internal/classify"
	"github.com/takeru/kujiin/internal/detector"
	"github.com/takeru/kujiin/internal/effect"
	"github.com/takeru/kujiin/internal/feature"
	"github.com/takeru/kujiin/internal/jutsu"
)

// runPipeline is the main detection loop that processes frames from the
// camera. It manages the transitions between idle and active modes based
// on motion detection.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS)
// 2. On motion detected, switch to active mode (ActiveFPS)
// 3. Run hand detection
// 4. ProcessFrame: normalize, classify, debounce, match
// 5. After 2s without motion, switch back to idle mode
//
// Empty frames still flow through ProcessFrame: the debouncer's
// stable-to-idle decay and the matcher's single-seal delay are evaluated
// lazily from frame timestamps and need the ticks.
func (a *App) runPipeline(stopCh <-chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > IdleTimeout {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			// In idle mode there is no hand to classify, but grace
			// periods and delays still need to elapse.
			if !activeMode || a.Detector() == nil {
				frame.Close()
				a.ProcessFrame(nil, time.Now())
				continue
			}

			hands, err := a.Detector().Detect(frame)
			frame.Close()

			if err != nil {
				log.Printf("Error detecting hands: %v", err)
				continue
			}

			a.ProcessFrame(hands, time.Now())
		}
	}
}

// ProcessFrame runs one frame through the full recognition pipeline:
// normalizer, classifier, debouncer and matcher, in that order, to
// completion. Exported so tests and alternative capture loops can drive
// the pipeline without a camera.
func (a *App) ProcessFrame(hands []detector.HandLandmarks, now time.Time) {
	clf := a.Classifier()

	// Malformed or absent hands yield a nil vector, which flows through
	// as "no seal this frame" rather than aborting the loop.
	var result classify.Result
	if vec := feature.Extract(hands); vec != nil && clf != nil {
		result = clf.Classify(vec)
	}

	a.pmu.Lock()
	ev := a.debouncer.Update(result.Label, result.Confidence, now)
	var completions []jutsu.Completion
	if ev != nil {
		completions = a.matcher.Dispatch(*ev)
	} else {
		completions = a.matcher.Tick(now)
	}
	a.pmu.Unlock()

	// Snapshot the callback lists so registration can happen while the
	// pipeline runs.
	a.mu.RLock()
	onSeal := a.onSeal
	onCompletion := a.onCompletion
	a.mu.RUnlock()

	if ev != nil {
		log.Printf("Seal confirmed: %s", ev.Label)
		for _, fn := range onSeal {
			fn(*ev)
		}
	}

	for _, c := range completions {
		log.Printf("Jutsu completed: %s", c.Display)
		for _, fn := range onCompletion {
			fn(c)
		}
		a.triggerEffect(c)
	}
}

// triggerEffect hands a completion to its effect pack, if one claims the
// jutsu. Execution runs off the pipeline goroutine so a slow pack cannot
// stall frame processing.
func (a *App) triggerEffect(c jutsu.Completion) {
	pack, err := a.effectMgr.ForJutsu(c.Name)
	if err != nil {
		return
	}

	req := &effect.Request{
		Jutsu:     c.Name,
		Display:   c.Display,
		Element:   c.Element,
		Asset:     c.Jutsu.EffectAsset,
		Timestamp: c.Timestamp.UnixMilli(),
		Config:    pack.Manifest.Config,
	}

	go func() {
		resp, err := a.effectExec.Execute(pack, req)
		if err != nil {
			log.Printf("Effect %s failed: %v", pack.Manifest.Name, err)
			return
		}
		if !resp.Success {
			log.Printf("Effect %s reported error: %s", pack.Manifest.Name, resp.Error)
		}
	}()
}
