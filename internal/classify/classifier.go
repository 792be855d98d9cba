// Package classify maps normalized feature vectors to seal labels.
package classify

import (
	"github.com/takeru/kujiin/internal/feature"
	"github.com/takeru/kujiin/internal/seal"
)

// Result is one frame's classification.
type Result struct {
	Label      seal.Label `json:"label"`
	Confidence float64    `json:"confidence"`
}

// Classifier is the pluggable inference contract. Implementations must
// be pure functions of the trained model and the vector, and must
// degrade gracefully: a vector whose shape does not match the trained
// model yields (None, 0.0) rather than an error.
type Classifier interface {
	Classify(vec feature.Vector) Result
}

// Func adapts a plain function to the Classifier interface.
type Func func(vec feature.Vector) Result

// Classify calls f.
func (f Func) Classify(vec feature.Vector) Result {
	return f(vec)
}
