package gesture

// Status strings reported to the control surface.
const (
	StatusCameraOff = "camera off"
	StatusNoHand    = "no hand"
	StatusStarting  = "starting"
)

// Status describes the debouncer's view of a frame for display.
// raw is the frame's classification; confirmed reports whether the
// debouncer emitted it.
func Status(raw Gesture, confirmed bool) string {
	switch {
	case raw == None:
		return StatusNoHand
	case confirmed && raw == Open:
		return "open (unwrap)"
	case confirmed && raw == Closed:
		return "fist (wrap)"
	default:
		return "detecting: " + raw.String()
	}
}

// ErrorStatus formats a failure for display.
func ErrorStatus(err error) string {
	return "error: " + err.Error()
}
