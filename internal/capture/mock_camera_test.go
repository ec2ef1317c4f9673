package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	// Create test frames
	frame1 := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	// Read both frames
	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f1.Close()

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f2.Close()

	// Third read should fail (no loop)
	_, err = cam.ReadFrame()
	if err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	// Should loop indefinitely
	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_OpenError(t *testing.T) {
	cam := NewMockCamera(nil, true)
	wantErr := errors.New("permission denied")
	cam.SetOpenError(wantErr)

	if err := cam.Open(); !errors.Is(err, wantErr) {
		t.Fatalf("Open() error = %v, want %v", err, wantErr)
	}
	if cam.IsOpen() {
		t.Error("camera should stay closed after a failed Open")
	}

	cam.SetOpenError(nil)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() after clearing error = %v", err)
	}
	cam.Close()
}

func TestMockCamera_Counters(t *testing.T) {
	frames := BlankFrames(1)
	defer frames[0].Close()

	cam := NewMockCamera(frames, true)

	for i := 0; i < 3; i++ {
		cam.Open()
		cam.Close()
		// A second Close on a closed camera is not counted.
		cam.Close()
	}

	if cam.Opens() != 3 || cam.Closes() != 3 {
		t.Errorf("Opens/Closes = %d/%d, want 3/3", cam.Opens(), cam.Closes())
	}
}

func TestMockCamera_ReadWhenClosed(t *testing.T) {
	frames := BlankFrames(1)
	defer frames[0].Close()

	cam := NewMockCamera(frames, true)
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}
