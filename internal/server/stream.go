package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/takeru/kujiin/internal/capture"
)

// StreamHandler serves the camera feed as an MJPEG stream so the web UI
// can show what the pipeline sees.
type StreamHandler struct {
	camera capture.Camera
	// fps bounds the stream rate independently of the capture rate.
	fps int
}

// NewStreamHandler creates a StreamHandler for the given camera.
func NewStreamHandler(camera capture.Camera) *StreamHandler {
	return &StreamHandler{
		camera: camera,
		fps:    10,
	}
}

// ServeHTTP streams multipart JPEG frames until the client disconnects
// or the camera stops producing frames.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.camera.IsOpen() {
		http.Error(w, "Camera is not open", http.StatusServiceUnavailable)
		return
	}

	const boundary = "frame"
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	interval := time.Second / time.Duration(h.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			frame, err := h.camera.ReadFrame()
			if err != nil {
				return
			}

			buf, err := gocv.IMEncode(".jpg", *frame)
			frame.Close()
			if err != nil {
				continue
			}

			jpeg := buf.GetBytes()
			_, err = fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(jpeg))
			if err == nil {
				_, err = w.Write(jpeg)
			}
			buf.Close()
			if err != nil {
				return
			}

			fmt.Fprint(w, "\r\n")
			flusher.Flush()
		}
	}
}
