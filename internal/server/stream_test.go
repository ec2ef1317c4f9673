package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

type fakeFrames struct {
	empty bool
	calls int
}

func (f *fakeFrames) Snapshot() *gocv.Mat {
	f.calls++
	if f.empty {
		return nil
	}
	m := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC3)
	return &m
}

func serveStream(t *testing.T, frames Snapshotter, d time.Duration) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		NewStreamHandler(frames).ServeHTTP(rec, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d + 2*time.Second):
		t.Fatal("stream did not stop when the request ended")
	}
	return rec
}

func TestStreamHandler_WritesJPEGParts(t *testing.T) {
	frames := &fakeFrames{}
	rec := serveStream(t, frames, 150*time.Millisecond)

	if ct := rec.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.Bytes()
	if !bytes.HasPrefix(body, []byte("--frame\r\nContent-Type: image/jpeg\r\n")) {
		t.Fatalf("unexpected body prefix %q", body[:min(len(body), 48)])
	}
	// JPEG start-of-image marker
	if !bytes.Contains(body, []byte{0xFF, 0xD8}) {
		t.Error("part does not contain JPEG data")
	}
	if frames.calls < 2 {
		t.Errorf("expected repeated snapshots, got %d", frames.calls)
	}
}

func TestStreamHandler_NoFrame(t *testing.T) {
	frames := &fakeFrames{empty: true}
	rec := serveStream(t, frames, 150*time.Millisecond)

	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %d bytes", rec.Body.Len())
	}
	if frames.calls == 0 {
		t.Error("handler never asked for a frame")
	}
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()
	NewStreamHandler(&fakeFrames{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
