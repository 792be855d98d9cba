package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/takeru/kujiin/internal/seal"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	if len(cfg.Seals) != 5 {
		t.Errorf("expected 5 seals, got %d", len(cfg.Seals))
	}
	if len(cfg.Jutsu) != 3 {
		t.Errorf("expected 3 jutsu, got %d", len(cfg.Jutsu))
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr, got %q", cfg.ListenAddr)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_addr: ":9090"
thresholds:
  confidence: 0.75
  hold_frames: 5
  grace_sec: 0.5
  timeout_sec: 5.0
  single_seal_delay_sec: 1.5
  k_neighbors: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("expected overridden listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.Thresholds.Confidence != 0.75 {
		t.Errorf("expected overridden confidence, got %v", cfg.Thresholds.Confidence)
	}
	// Untouched sections keep their defaults
	if len(cfg.Seals) != 5 {
		t.Errorf("expected default seals to survive the merge, got %d", len(cfg.Seals))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty vocabulary", func(c *Config) { c.Seals = nil }},
		{"empty seal id", func(c *Config) { c.Seals[0].ID = "" }},
		{"duplicate seal", func(c *Config) { c.Seals[1].ID = c.Seals[0].ID }},
		{"unknown seal in jutsu", func(c *Config) { c.Jutsu[0].Seals[0] = "saru" }},
		{"empty jutsu sequence", func(c *Config) { c.Jutsu[0].Seals = nil }},
		{"duplicate jutsu name", func(c *Config) { c.Jutsu[1].Name = c.Jutsu[0].Name }},
		{"invalid hand count", func(c *Config) { c.Seals[0].Hands = 3 }},
		{"confidence above 1", func(c *Config) { c.Thresholds.Confidence = 1.5 }},
		{"confidence below 0", func(c *Config) { c.Thresholds.Confidence = -0.1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg := Default()

	vocab := cfg.Vocabulary()
	if len(vocab) != 5 || vocab[0] != seal.Tiger {
		t.Errorf("unexpected vocabulary: %v", vocab)
	}

	defs := cfg.Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	if defs[0].Name != "katon_goukakyu" {
		t.Errorf("expected registration order preserved, got %q first", defs[0].Name)
	}
	if len(defs[1].Seals) != 1 || defs[1].Seals[0] != seal.Ram {
		t.Errorf("unexpected kage_bunshin sequence: %v", defs[1].Seals)
	}

	dc := cfg.DebounceConfig()
	if dc.MinConfidence != 0.6 || dc.HoldFrames != 5 || dc.GracePeriod != 500*time.Millisecond {
		t.Errorf("unexpected debounce config: %+v", dc)
	}

	mo := cfg.MatcherOptions()
	if mo.DefaultTimeout != 5*time.Second || mo.SingleSealDelay != 1500*time.Millisecond {
		t.Errorf("unexpected matcher options: %+v", mo)
	}
}
