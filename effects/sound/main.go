// Package main provides a sound effect pack.
// It plays an audio clip named by the completion's asset field.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Request represents the completion event from the effect executor.
type Request struct {
	Jutsu     string          `json:"jutsu"`
	Display   string          `json:"display"`
	Element   string          `json:"element"`
	Asset     string          `json:"asset"`
	Timestamp int64           `json:"timestamp"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the effect executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// packConfig holds the pack-level settings from the manifest.
type packConfig struct {
	// SoundDir is where the .wav clips live, relative to the pack.
	SoundDir string `json:"sound_dir"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Asset == "" {
		writeErrorResponse("no asset named for this jutsu")
		return
	}

	cfg := packConfig{SoundDir: "sounds"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	clip := filepath.Join(cfg.SoundDir, req.Asset+".wav")
	if _, err := os.Stat(clip); err != nil {
		writeErrorResponse(fmt.Sprintf("missing clip: %v", err))
		return
	}

	if err := play(clip); err != nil {
		writeErrorResponse(fmt.Sprintf("playback failed: %v", err))
		return
	}

	writeSuccessResponse()
}

// play plays an audio file using the platform's native player.
func play(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("afplay", path)
	default:
		cmd = exec.Command("aplay", "-q", path)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
