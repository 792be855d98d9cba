package effect

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// ErrPackNotFound is returned when no pack handles a requested jutsu.
var ErrPackNotFound = errors.New("effect pack not found")

// Manager discovers effect packs and maps jutsu names to them.
type Manager struct {
	packDir string
	packs   map[string]*Pack // by pack name
	byJutsu map[string]*Pack
	mu      sync.RWMutex
}

// NewManager creates a new effect Manager with the given pack directory.
func NewManager(packDir string) *Manager {
	return &Manager{
		packDir: packDir,
		packs:   make(map[string]*Pack),
		byJutsu: make(map[string]*Pack),
	}
}

// Discover scans the pack directory for effect.json manifests and loads
// them. Each subdirectory is expected to be one pack. A jutsu claimed by
// several packs goes to whichever was discovered last.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.packs = make(map[string]*Pack)
	m.byJutsu = make(map[string]*Pack)

	info, err := os.Stat(m.packDir)
	if os.IsNotExist(err) {
		return nil // No pack directory, nothing to discover
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.packDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		packPath := filepath.Join(m.packDir, entry.Name())
		manifestPath := filepath.Join(packPath, "effect.json")

		manifestData, err := os.ReadFile(manifestPath)
		if err != nil {
			continue // Skip packs we can't read
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			continue // Skip packs with invalid JSON
		}

		pack := &Pack{
			Manifest:   manifest,
			Path:       packPath,
			Executable: filepath.Join(packPath, manifest.Executable),
		}

		m.packs[manifest.Name] = pack
		for _, j := range manifest.Jutsu {
			m.byJutsu[j] = pack
		}
	}

	return nil
}

// ForJutsu returns the pack that handles the given jutsu name.
// Returns ErrPackNotFound if no pack claims it.
func (m *Manager) ForJutsu(jutsuName string) (*Pack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pack, ok := m.byJutsu[jutsuName]
	if !ok {
		return nil, ErrPackNotFound
	}
	return pack, nil
}

// Get returns a pack by pack name.
// Returns ErrPackNotFound if the pack does not exist.
func (m *Manager) Get(name string) (*Pack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pack, ok := m.packs[name]
	if !ok {
		return nil, ErrPackNotFound
	}
	return pack, nil
}

// List returns a slice of all discovered packs.
func (m *Manager) List() []*Pack {
	m.mu.RLock()
	defer m.mu.RUnlock()

	packs := make([]*Pack, 0, len(m.packs))
	for _, pack := range m.packs {
		packs = append(packs, pack)
	}
	return packs
}

// PackDir returns the pack directory path.
func (m *Manager) PackDir() string {
	return m.packDir
}
