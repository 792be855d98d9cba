package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ScriptedDetector plays back a fixed per-frame sequence of hand sets.
// Once the script runs out it keeps returning the final entry, so a held
// pose can be expressed as a single trailing frame.
type ScriptedDetector struct {
	frames [][]HandLandmarks
	index  int
}

// NewScriptedDetector creates a detector that replays frames in order.
func NewScriptedDetector(frames [][]HandLandmarks) *ScriptedDetector {
	return &ScriptedDetector{frames: frames}
}

// Append adds frames to the end of the script.
func (s *ScriptedDetector) Append(frames ...[]HandLandmarks) {
	s.frames = append(s.frames, frames...)
}

// Detect returns the next scripted frame's hands.
func (s *ScriptedDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if len(s.frames) == 0 {
		return nil, nil
	}
	hands := s.frames[s.index]
	if s.index < len(s.frames)-1 {
		s.index++
	}
	return hands, nil
}

// Close is a no-op for the scripted detector.
func (s *ScriptedDetector) Close() error {
	return nil
}

// MakeHand builds a synthetic hand at the given wrist origin and scale.
// curl bends each finger (thumb first) from fully extended (0) to fully
// curled (1). Left hands are mirrored on the X axis. Deterministic, so
// the same parameters always produce the same landmarks.
func MakeHand(handedness string, origin Point3D, scale float64, curl [5]float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}
	h.Points[Wrist] = origin

	mirror := 1.0
	if handedness == "Left" {
		mirror = -1.0
	}

	// Knuckle fan: X offset and base height per finger, thumb to pinky.
	baseX := [5]float64{0.09, 0.05, 0.0, -0.05, -0.09}
	baseY := [5]float64{0.06, 0.12, 0.14, 0.12, 0.10}
	segLen := [5]float64{0.05, 0.07, 0.08, 0.07, 0.05}

	for f := 0; f < 5; f++ {
		ext := 1.0 - curl[f]
		for j := 0; j < 4; j++ {
			idx := 1 + f*4 + j
			reach := baseY[f] + float64(j)*segLen[f]*ext
			h.Points[idx] = Point3D{
				X: origin.X + mirror*baseX[f]*scale,
				Y: origin.Y - reach*scale,
				Z: origin.Z - 0.03*curl[f]*float64(j)*scale,
			}
		}
	}
	return h
}

// Preset curl profiles for the seal poses used in tests. The exact
// geometry is synthetic; what matters is that each pose is distinct and
// reproducible.
var (
	tigerCurl = [5]float64{1.0, 0.0, 0.0, 1.0, 1.0}
	snakeCurl = [5]float64{0.3, 0.8, 0.8, 0.8, 0.8}
	ramCurl   = [5]float64{0.8, 0.0, 0.9, 0.2, 0.6}
	oxCurl    = [5]float64{0.1, 0.9, 0.1, 0.9, 0.1}
	birdCurl  = [5]float64{0.5, 0.4, 0.0, 0.4, 0.5}
)

// TigerSealHands returns a two-hand Tiger seal pose.
func TigerSealHands() []HandLandmarks { return sealHands(tigerCurl) }

// SnakeSealHands returns a two-hand Snake seal pose.
func SnakeSealHands() []HandLandmarks { return sealHands(snakeCurl) }

// RamSealHands returns a two-hand Ram seal pose.
func RamSealHands() []HandLandmarks { return sealHands(ramCurl) }

// OxSealHands returns a two-hand Ox seal pose.
func OxSealHands() []HandLandmarks { return sealHands(oxCurl) }

// BirdSealHands returns a two-hand Bird seal pose.
func BirdSealHands() []HandLandmarks { return sealHands(birdCurl) }

func sealHands(curl [5]float64) []HandLandmarks {
	return []HandLandmarks{
		MakeHand("Left", Point3D{X: 0.42, Y: 0.8, Z: 0.0}, 1.0, curl),
		MakeHand("Right", Point3D{X: 0.58, Y: 0.8, Z: 0.0}, 1.0, curl),
	}
}
