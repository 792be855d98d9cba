package classify

import (
	"fmt"
	"math"
	"sort"

	"github.com/takeru/kujiin/internal/feature"
	"github.com/takeru/kujiin/internal/seal"
)

// DefaultK is the default neighbour count for the k-NN classifier.
const DefaultK = 5

// Prototype is one labelled training vector.
type Prototype struct {
	Label    seal.Label
	Features feature.Vector
}

// KNN classifies by majority vote over the k nearest prototypes under
// Euclidean distance. Confidence is the winning label's vote share,
// which plays the role the class probability plays in a probabilistic
// model. The prototype set is fixed at Fit time, so Classify is pure.
type KNN struct {
	k          int
	dim        int
	prototypes []Prototype
}

// NewKNN creates an untrained classifier. k values below 1 fall back to
// DefaultK. Until Fit is called every classification is (None, 0.0).
func NewKNN(k int) *KNN {
	if k < 1 {
		k = DefaultK
	}
	return &KNN{k: k}
}

// Fit replaces the prototype set. All prototypes must share one vector
// length, which becomes the expected input shape.
func (c *KNN) Fit(prototypes []Prototype) error {
	if len(prototypes) == 0 {
		return fmt.Errorf("no prototypes provided")
	}

	dim := len(prototypes[0].Features)
	for i, p := range prototypes {
		if p.Label == seal.None {
			return fmt.Errorf("prototype %d has no label", i)
		}
		if len(p.Features) != dim {
			return fmt.Errorf("prototype %d has %d features, expected %d", i, len(p.Features), dim)
		}
	}

	c.prototypes = prototypes
	c.dim = dim
	return nil
}

// Len returns the number of fitted prototypes.
func (c *KNN) Len() int {
	return len(c.prototypes)
}

// Dim returns the expected feature vector length, 0 before Fit.
func (c *KNN) Dim() int {
	return c.dim
}

// Classify returns the majority label among the k nearest prototypes.
// A nil vector, an untrained model, or a shape mismatch yields
// (None, 0.0).
func (c *KNN) Classify(vec feature.Vector) Result {
	if len(c.prototypes) == 0 || len(vec) != c.dim {
		return Result{Label: seal.None, Confidence: 0.0}
	}
	return c.classifyExcluding(vec, -1)
}

// classifyExcluding votes over the k nearest prototypes, skipping the
// prototype at the given index (used for leave-one-out evaluation).
func (c *KNN) classifyExcluding(vec feature.Vector, exclude int) Result {
	type neighbour struct {
		label seal.Label
		dist  float64
	}

	neighbours := make([]neighbour, 0, len(c.prototypes))
	for i, p := range c.prototypes {
		if i == exclude {
			continue
		}
		neighbours = append(neighbours, neighbour{label: p.Label, dist: euclidean(vec, p.Features)})
	}
	if len(neighbours) == 0 {
		return Result{Label: seal.None, Confidence: 0.0}
	}

	sort.Slice(neighbours, func(i, j int) bool {
		return neighbours[i].dist < neighbours[j].dist
	})

	k := c.k
	if k > len(neighbours) {
		k = len(neighbours)
	}

	votes := make(map[seal.Label]int)
	sums := make(map[seal.Label]float64)
	for _, n := range neighbours[:k] {
		votes[n.label]++
		sums[n.label] += n.dist
	}

	// Ties break on smaller summed distance, then label order, so the
	// result is deterministic.
	var best seal.Label
	for label, count := range votes {
		switch {
		case best == seal.None:
			best = label
		case count > votes[best]:
			best = label
		case count == votes[best] && (sums[label] < sums[best] ||
			(sums[label] == sums[best] && label < best)):
			best = label
		}
	}

	return Result{
		Label:      best,
		Confidence: float64(votes[best]) / float64(k),
	}
}

// LeaveOneOutAccuracy scores the fitted prototype set by classifying
// each prototype against all the others.
func (c *KNN) LeaveOneOutAccuracy() float64 {
	if len(c.prototypes) == 0 {
		return 0
	}

	correct := 0
	for i, p := range c.prototypes {
		if c.classifyExcluding(p.Features, i).Label == p.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(c.prototypes))
}

func euclidean(a, b feature.Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
