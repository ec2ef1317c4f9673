package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"
)

// Snapshotter yields copies of the latest camera frame, or nil when no
// frame is available. The caller closes the copy.
type Snapshotter interface {
	Snapshot() *gocv.Mat
}

const (
	streamInterval = 66 * time.Millisecond // ~15 FPS
	streamIdle     = 100 * time.Millisecond
)

// StreamHandler serves the tracker's camera frames as MJPEG. It never reads
// the camera itself, so previews do not compete with gesture capture.
type StreamHandler struct {
	frames Snapshotter
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(frames Snapshotter) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		delay := streamInterval
		if err := h.writeFrame(w); err != nil {
			delay = streamIdle
		}

		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}
}

var errNoFrame = errors.New("no frame")

func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame := h.frames.Snapshot()
	if frame == nil {
		return errNoFrame
	}
	buf, err := gocv.IMEncode(".jpg", *frame)
	frame.Close()
	if err != nil {
		return err
	}
	defer buf.Close()

	fmt.Fprintf(w, "--frame\r\n")
	fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
	fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
	w.Write(buf.GetBytes())
	fmt.Fprintf(w, "\r\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
