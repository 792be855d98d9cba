// Package feature converts raw hand landmarks into the normalized,
// fixed-length vectors the seal classifier consumes.
//
// Each hand is translated to a wrist origin and scaled by palm size, so
// the same physical pose yields near-identical vectors regardless of
// where or how large the hands appear in the camera frame. Hands are
// ordered left-first; a lone hand is padded with a zero hand. The same
// extraction runs during sample collection and live inference, which is
// what keeps training and prediction comparable.
package feature

import (
	"math"

	"github.com/takeru/kujiin/internal/detector"
)

// Vector layout: per-hand flattened coordinates, fingertip-to-wrist
// distances per hand, cross-hand fingertip distances, palm distance and
// left-fingertip-to-right-wrist distances.
const (
	coordDim = 2 * detector.NumLandmarks * 3 // 126
	// Dim is the full feature vector length.
	Dim = coordDim + 5 + 5 + 5 + 1 + 5 // 147
)

// Vector is a feature vector of length Dim.
type Vector []float64

type hand [detector.NumLandmarks]detector.Point3D

// Extract builds a feature vector from the hands detected in one frame.
// Returns nil when no usable pose is present: zero hands, more than two,
// or any non-finite coordinate.
func Extract(hands []detector.HandLandmarks) Vector {
	if len(hands) == 0 || len(hands) > 2 {
		return nil
	}
	for i := range hands {
		if !finite(&hands[i]) {
			return nil
		}
	}

	// Left hand first; detection order is the fallback when handedness
	// is ambiguous. Must match the ordering used at collection time.
	ordered := make([]detector.HandLandmarks, len(hands))
	copy(ordered, hands)
	if len(ordered) == 2 && ordered[0].Handedness != "Left" && ordered[1].Handedness == "Left" {
		ordered[0], ordered[1] = ordered[1], ordered[0]
	}

	var left, right hand
	left = normalizeHand(&ordered[0])
	if len(ordered) == 2 {
		right = normalizeHand(&ordered[1])
	}

	vec := make(Vector, 0, Dim)

	for _, h := range []*hand{&left, &right} {
		for i := 0; i < detector.NumLandmarks; i++ {
			vec = append(vec, h[i].X, h[i].Y, h[i].Z)
		}
	}

	// Fingertip-to-wrist distances; wrists sit at the origin.
	for _, h := range []*hand{&left, &right} {
		for _, ft := range detector.Fingertips {
			vec = append(vec, norm(h[ft]))
		}
	}

	// Cross-hand fingertip distances.
	for _, ft := range detector.Fingertips {
		vec = append(vec, dist(left[ft], right[ft]))
	}

	// Palm distance between the two index knuckles.
	vec = append(vec, dist(left[detector.IndexMCP], right[detector.IndexMCP]))

	// Left fingertips to the right wrist (origin after normalization).
	for _, ft := range detector.Fingertips {
		vec = append(vec, norm(left[ft]))
	}

	return vec
}

// normalizeHand translates the landmarks to a wrist origin and scales by
// palm size (wrist to index MCP).
func normalizeHand(src *detector.HandLandmarks) hand {
	var out hand
	wrist := src.Points[detector.Wrist]
	for i := 0; i < detector.NumLandmarks; i++ {
		out[i] = detector.Point3D{
			X: src.Points[i].X - wrist.X,
			Y: src.Points[i].Y - wrist.Y,
			Z: src.Points[i].Z - wrist.Z,
		}
	}

	palm := norm(out[detector.IndexMCP])
	if palm < 1e-6 {
		return out
	}
	for i := 0; i < detector.NumLandmarks; i++ {
		out[i].X /= palm
		out[i].Y /= palm
		out[i].Z /= palm
	}
	return out
}

func finite(h *detector.HandLandmarks) bool {
	for i := range h.Points {
		p := h.Points[i]
		for _, v := range [3]float64{p.X, p.Y, p.Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func norm(p detector.Point3D) float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

func dist(a, b detector.Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
