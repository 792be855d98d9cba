// Package effect runs external effect packs when a jutsu completes.
// Packs are discovered from a directory of manifests and executed as
// subprocesses speaking JSON over stdin/stdout, so overlay rendering
// stays outside the recognition core.
package effect

import "encoding/json"

// Manifest describes an effect pack's metadata and capabilities.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Jutsu       []string        `json:"jutsu"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request represents a completion event sent to an effect pack.
type Request struct {
	Jutsu     string          `json:"jutsu"`
	Display   string          `json:"display"`
	Element   string          `json:"element"`
	Asset     string          `json:"asset,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from an effect pack execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Pack represents a discovered effect pack with its manifest and location.
type Pack struct {
	Manifest   Manifest
	Path       string
	Executable string
}
