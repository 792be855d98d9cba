// Package jutsu provides jutsu definitions and the sequence-tracking
// machinery that matches stable seal events against them.
package jutsu

import (
	"fmt"
	"time"

	"github.com/takeru/kujiin/internal/seal"
)

// Definition describes one jutsu: a named, ordered seal sequence plus
// presentation metadata. Definitions are static configuration and must
// not be mutated after registration.
type Definition struct {
	Name        string
	Display     string
	Element     string
	Seals       []seal.Label
	EffectAsset string
	// Timeout overrides the matcher's default inter-seal timeout when
	// non-zero.
	Timeout time.Duration
}

// ValidateDefinitions rejects definitions that can never behave sensibly
// at runtime: empty seal sequences (they would trivially "complete"
// before any input) and duplicate names.
func ValidateDefinitions(defs []Definition) error {
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("jutsu with empty name")
		}
		if seen[def.Name] {
			return fmt.Errorf("duplicate jutsu %q", def.Name)
		}
		seen[def.Name] = true
		if len(def.Seals) == 0 {
			return fmt.Errorf("jutsu %q has an empty seal sequence", def.Name)
		}
		for _, s := range def.Seals {
			if s == seal.None {
				return fmt.Errorf("jutsu %q contains the None seal", def.Name)
			}
		}
	}
	return nil
}
