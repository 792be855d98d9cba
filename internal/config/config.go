// Package config loads and validates the static configuration for the
// Kujiin seal recognition pipeline: the seal vocabulary, the jutsu
// definitions and the tunable thresholds.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/takeru/kujiin/internal/jutsu"
	"github.com/takeru/kujiin/internal/seal"
)

// Seal describes one vocabulary entry.
type Seal struct {
	ID      string `yaml:"id"`
	Display string `yaml:"display"`
	// Hands is how many hands form the seal, 1 or 2. Zero means 2.
	Hands int `yaml:"hands,omitempty"`
}

// Jutsu describes one target seal sequence.
type Jutsu struct {
	Name    string   `yaml:"name"`
	Display string   `yaml:"display"`
	Element string   `yaml:"element"`
	Seals   []string `yaml:"seals"`
	Effect  string   `yaml:"effect,omitempty"`
	// TimeoutSec overrides the default inter-seal timeout when non-zero.
	TimeoutSec float64 `yaml:"timeout_sec,omitempty"`
}

// Thresholds are the pipeline tuning knobs.
type Thresholds struct {
	// Confidence is the classifier acceptance threshold.
	Confidence float64 `yaml:"confidence"`
	// HoldFrames is the debounce minimum-consecutive-frames count.
	HoldFrames int `yaml:"hold_frames"`
	// GraceSec is how long a stable seal survives empty frames.
	GraceSec float64 `yaml:"grace_sec"`
	// TimeoutSec is the default inter-seal timeout.
	TimeoutSec float64 `yaml:"timeout_sec"`
	// SingleSealDelaySec delays single-seal jutsu completion.
	SingleSealDelaySec float64 `yaml:"single_seal_delay_sec"`
	// KNeighbors is the classifier neighbour count.
	KNeighbors int `yaml:"k_neighbors"`
}

// Config is the full application configuration. Treat it as immutable
// once loaded; constructors take it by value.
type Config struct {
	ListenAddr string     `yaml:"listen_addr"`
	CameraID   int        `yaml:"camera_id"`
	DataDir    string     `yaml:"data_dir"`
	EffectDir  string     `yaml:"effect_dir"`
	StaticDir  string     `yaml:"static_dir"`
	Seals      []Seal     `yaml:"seals"`
	Jutsu      []Jutsu    `yaml:"jutsu"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// Default returns the built-in configuration: the five-seal vocabulary
// and three jutsu of the reference setup plus its tuning constants.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		CameraID:   0,
		Seals: []Seal{
			{ID: string(seal.Tiger), Display: "Tiger"},
			{ID: string(seal.Snake), Display: "Snake"},
			{ID: string(seal.Ram), Display: "Ram"},
			{ID: string(seal.Bird), Display: "Bird"},
			{ID: string(seal.Ox), Display: "Ox"},
		},
		Jutsu: []Jutsu{
			{
				Name:    "katon_goukakyu",
				Display: "Katon: Goukakyu (Fireball)",
				Element: "Fire",
				Seals:   []string{string(seal.Snake), string(seal.Ram), string(seal.Tiger)},
				Effect:  "fireball",
			},
			{
				Name:    "kage_bunshin",
				Display: "Kage Bunshin (Shadow Clone)",
				Element: "None",
				Seals:   []string{string(seal.Ram)},
				Effect:  "shadow_clone",
			},
			{
				Name:    "chidori",
				Display: "Chidori",
				Element: "Lightning",
				Seals:   []string{string(seal.Ox), string(seal.Bird), string(seal.Ram)},
				Effect:  "chidori",
			},
		},
		Thresholds: Thresholds{
			Confidence:         0.6,
			HoldFrames:         5,
			GraceSec:           0.5,
			TimeoutSec:         5.0,
			SingleSealDelaySec: 1.5,
			KNeighbors:         5,
		},
	}
}

// Load reads a YAML config file over the defaults and validates the
// result. A missing path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if len(c.Seals) == 0 {
		return fmt.Errorf("config: empty seal vocabulary")
	}

	vocab := make(map[string]bool, len(c.Seals))
	for _, s := range c.Seals {
		if s.ID == "" {
			return fmt.Errorf("config: seal with empty id")
		}
		if vocab[s.ID] {
			return fmt.Errorf("config: duplicate seal %q", s.ID)
		}
		if s.Hands < 0 || s.Hands > 2 {
			return fmt.Errorf("config: seal %q has invalid hand count %d", s.ID, s.Hands)
		}
		vocab[s.ID] = true
	}

	for _, j := range c.Jutsu {
		for _, s := range j.Seals {
			if !vocab[s] {
				return fmt.Errorf("config: jutsu %q references unknown seal %q", j.Name, s)
			}
		}
	}

	if err := jutsu.ValidateDefinitions(c.Definitions()); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.Thresholds.Confidence < 0 || c.Thresholds.Confidence > 1 {
		return fmt.Errorf("config: confidence threshold %v outside [0,1]", c.Thresholds.Confidence)
	}
	return nil
}

// Vocabulary returns the configured seal labels in order.
func (c Config) Vocabulary() []seal.Label {
	labels := make([]seal.Label, len(c.Seals))
	for i, s := range c.Seals {
		labels[i] = seal.Label(s.ID)
	}
	return labels
}

// Definitions converts the configured jutsu into matcher definitions,
// preserving registration order.
func (c Config) Definitions() []jutsu.Definition {
	defs := make([]jutsu.Definition, len(c.Jutsu))
	for i, j := range c.Jutsu {
		seals := make([]seal.Label, len(j.Seals))
		for k, s := range j.Seals {
			seals[k] = seal.Label(s)
		}
		defs[i] = jutsu.Definition{
			Name:        j.Name,
			Display:     j.Display,
			Element:     j.Element,
			Seals:       seals,
			EffectAsset: j.Effect,
			Timeout:     secs(j.TimeoutSec),
		}
	}
	return defs
}

// DebounceConfig converts the thresholds for the debouncer.
func (c Config) DebounceConfig() seal.DebounceConfig {
	return seal.DebounceConfig{
		MinConfidence: c.Thresholds.Confidence,
		HoldFrames:    c.Thresholds.HoldFrames,
		GracePeriod:   secs(c.Thresholds.GraceSec),
	}
}

// MatcherOptions converts the thresholds for the jutsu matcher.
func (c Config) MatcherOptions() jutsu.Options {
	return jutsu.Options{
		DefaultTimeout:  secs(c.Thresholds.TimeoutSec),
		SingleSealDelay: secs(c.Thresholds.SingleSealDelaySec),
	}
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
