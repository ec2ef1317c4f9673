package gesture

// DefaultThreshold is the run length a gesture must exceed before it is
// confirmed. With 2, the third consecutive frame confirms.
const DefaultThreshold = 2

// Debouncer suppresses single-frame classification jitter.
// It is not safe for concurrent use; the capture loop owns it.
type Debouncer struct {
	threshold int
	last      Gesture
	count     int
}

// NewDebouncer creates a Debouncer. Thresholds below 1 are raised to 1.
func NewDebouncer(threshold int) *Debouncer {
	return &Debouncer{threshold: clampThreshold(threshold)}
}

func clampThreshold(threshold int) int {
	if threshold < 1 {
		return 1
	}
	return threshold
}

// Observe feeds one raw classification and reports the confirmed gesture,
// if any. count is the number of repeats after the first frame of a run,
// so a run confirms once it spans more than threshold frames. From then on
// the gesture is returned on every further matching frame.
//
// None leaves the state untouched so a short tracking dropout does not
// discard an established run.
func (d *Debouncer) Observe(raw Gesture) (Gesture, bool) {
	if raw == None {
		return None, false
	}

	if raw != d.last {
		d.last = raw
		d.count = 0
		return None, false
	}

	d.count++
	if d.count >= d.threshold {
		return d.last, true
	}
	return None, false
}

// Reset clears the run. Called when tracking starts or stops.
func (d *Debouncer) Reset() {
	d.last = None
	d.count = 0
}

// SetThreshold changes the confirmation threshold without clearing the run.
func (d *Debouncer) SetThreshold(threshold int) {
	d.threshold = clampThreshold(threshold)
}

// Threshold returns the current confirmation threshold.
func (d *Debouncer) Threshold() int {
	return d.threshold
}

// Pending returns the gesture currently being counted and its repeat count.
func (d *Debouncer) Pending() (Gesture, int) {
	return d.last, d.count
}
