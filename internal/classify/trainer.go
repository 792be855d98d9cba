package classify

import (
	"encoding/json"
	"fmt"

	"github.com/takeru/kujiin/internal/feature"
	"github.com/takeru/kujiin/internal/seal"
)

// SampleData is the stored JSON form of one labelled training sample.
type SampleData struct {
	Features  []float64 `json:"features"`
	Timestamp int64     `json:"timestamp,omitempty"`
}

// Trainer builds a k-NN classifier from stored labelled samples.
type Trainer struct {
	k int
}

// NewTrainer creates a Trainer; k values below 1 fall back to DefaultK.
func NewTrainer(k int) *Trainer {
	if k < 1 {
		k = DefaultK
	}
	return &Trainer{k: k}
}

// Train parses the raw samples per seal label and fits a classifier.
// Samples whose vector length differs from feature.Dim are rejected,
// since they were collected against an incompatible extraction layout.
func (t *Trainer) Train(samples map[seal.Label][]json.RawMessage) (*KNN, error) {
	var prototypes []Prototype

	for label, raws := range samples {
		for i, raw := range raws {
			var data SampleData
			if err := json.Unmarshal(raw, &data); err != nil {
				return nil, fmt.Errorf("parse sample %d for seal %q: %w", i, label, err)
			}
			if len(data.Features) != feature.Dim {
				return nil, fmt.Errorf("sample %d for seal %q has %d features, expected %d",
					i, label, len(data.Features), feature.Dim)
			}
			prototypes = append(prototypes, Prototype{
				Label:    label,
				Features: feature.Vector(data.Features),
			})
		}
	}

	if len(prototypes) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	knn := NewKNN(t.k)
	if err := knn.Fit(prototypes); err != nil {
		return nil, err
	}
	return knn, nil
}
