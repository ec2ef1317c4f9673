// Package tracking runs the gesture subsystem: camera, landmark detector,
// classifier and debouncer feeding the assembly state.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/giftwrap/internal/assembly"
	"github.com/ayusman/giftwrap/internal/capture"
	"github.com/ayusman/giftwrap/internal/detector"
	"github.com/ayusman/giftwrap/internal/gesture"
)

// Config wires the tracker to its collaborators.
type Config struct {
	Camera    capture.Camera
	Detectors detector.Factory
	State     *assembly.State
	// Threshold is the debounce threshold (default gesture.DefaultThreshold).
	Threshold int
	// FrameInterval overrides the capture period derived from the camera FPS.
	FrameInterval time.Duration
}

// Tracker owns the camera and detector while enabled. Start and Stop are
// idempotent, and a stopped tracker holds no device handles.
type Tracker struct {
	config    Config
	debouncer *gesture.Debouncer
	threshold atomic.Int64

	mu sync.Mutex
	// running is atomic so status callbacks may call Running while Start
	// or Stop holds mu.
	running  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	detector detector.Detector

	statusMu sync.RWMutex
	status   string
	onStatus []func(string)

	frameMu sync.Mutex
	latest  *gocv.Mat
}

// New creates a stopped tracker.
func New(config Config) *Tracker {
	if config.Threshold <= 0 {
		config.Threshold = gesture.DefaultThreshold
	}
	t := &Tracker{
		config:    config,
		debouncer: gesture.NewDebouncer(config.Threshold),
		status:    gesture.StatusCameraOff,
	}
	t.threshold.Store(int64(config.Threshold))
	return t
}

// OnStatus registers fn to be called whenever the status string changes.
func (t *Tracker) OnStatus(fn func(string)) {
	if fn == nil {
		return
	}
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	t.onStatus = append(t.onStatus, fn)
}

// Status returns the current status string.
func (t *Tracker) Status() string {
	t.statusMu.RLock()
	defer t.statusMu.RUnlock()
	return t.status
}

func (t *Tracker) setStatus(s string) {
	t.statusMu.Lock()
	if t.status == s {
		t.statusMu.Unlock()
		return
	}
	t.status = s
	subs := append([]func(string){}, t.onStatus...)
	t.statusMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Running reports whether tracking is enabled.
func (t *Tracker) Running() bool {
	return t.running.Load()
}

// Threshold returns the debounce threshold.
func (t *Tracker) Threshold() int {
	return int(t.threshold.Load())
}

// SetThreshold changes the debounce threshold; the capture loop picks it up
// on its next frame.
func (t *Tracker) SetThreshold(n int) {
	if n < 1 {
		n = 1
	}
	t.threshold.Store(int64(n))
}

// Start opens the camera, creates a fresh detector and launches the capture
// loop. Failures leave the tracker stopped with an error status.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running.Load() {
		return nil
	}

	if err := t.config.Camera.Open(); err != nil {
		err = fmt.Errorf("open camera: %w", err)
		t.setStatus(gesture.ErrorStatus(err))
		return err
	}

	det, err := t.config.Detectors()
	if err != nil {
		t.config.Camera.Close()
		err = fmt.Errorf("create detector: %w", err)
		t.setStatus(gesture.ErrorStatus(err))
		return err
	}

	t.debouncer.Reset()
	t.debouncer.SetThreshold(t.Threshold())

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.detector = det
	t.running.Store(true)
	t.setStatus(gesture.StatusStarting)

	go t.run(loopCtx, det, t.done)

	log.Println("Gesture tracking started")
	return nil
}

// Stop halts the capture loop and releases the camera and detector.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running.Load() {
		return nil
	}

	t.cancel()
	<-t.done

	var errs []error
	if err := t.config.Camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := t.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}

	t.detector = nil
	t.cancel = nil
	t.done = nil
	t.running.Store(false)
	t.debouncer.Reset()
	t.storeFrame(nil)
	t.setStatus(gesture.StatusCameraOff)

	log.Println("Gesture tracking stopped")
	return errors.Join(errs...)
}

// Snapshot returns a copy of the most recent camera frame, or nil. The
// caller closes it.
func (t *Tracker) Snapshot() *gocv.Mat {
	t.frameMu.Lock()
	defer t.frameMu.Unlock()
	if t.latest == nil {
		return nil
	}
	m := t.latest.Clone()
	return &m
}

// storeFrame takes ownership of frame.
func (t *Tracker) storeFrame(frame *gocv.Mat) {
	t.frameMu.Lock()
	defer t.frameMu.Unlock()
	if t.latest != nil {
		t.latest.Close()
	}
	t.latest = frame
}

func (t *Tracker) interval() time.Duration {
	if t.config.FrameInterval > 0 {
		return t.config.FrameInterval
	}
	fps := t.config.Camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// run is the capture loop: read, detect, classify, debounce, write state.
func (t *Tracker) run(ctx context.Context, det detector.Detector, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := t.config.Camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			hands, err := det.Detect(frame)
			t.storeFrame(frame)
			if err != nil {
				if errors.Is(err, detector.ErrMalformedHand) {
					log.Printf("Skipping frame: %v", err)
				} else {
					log.Printf("Error detecting hands: %v", err)
				}
				continue
			}

			t.debouncer.SetThreshold(t.Threshold())
			t.observe(hands)
		}
	}
}

// observe runs one frame through the classifier and debouncer. Only the
// first hand counts, so each frame advances the run at most once whatever
// detector.max_hands is set to.
func (t *Tracker) observe(hands []detector.HandLandmarks) {
	if len(hands) == 0 {
		t.setStatus(gesture.StatusNoHand)
		return
	}

	raw := gesture.Classify(&hands[0])
	confirmed, ok := t.debouncer.Observe(raw)
	if ok {
		// OPEN unwraps, CLOSED wraps.
		if t.config.State.SetAssembled(confirmed == gesture.Closed, assembly.SourceGesture) {
			log.Printf("Gesture confirmed: %s", confirmed)
		}
	}
	t.setStatus(gesture.Status(raw, ok))
}
