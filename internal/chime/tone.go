package chime

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// sine is a fixed-length sine oscillator.
type sine struct {
	freq     float64
	phase    float64
	position int
	length   int
	rate     beep.SampleRate
}

func newSine(freq float64, d time.Duration, rate beep.SampleRate) *sine {
	return &sine{freq: freq, length: rate.N(d), rate: rate}
}

func (s *sine) Stream(samples [][2]float64) (int, bool) {
	if s.position >= s.length {
		return 0, false
	}
	for i := range samples {
		if s.position >= s.length {
			return i, true
		}
		v := math.Sin(2 * math.Pi * s.phase)
		samples[i][0], samples[i][1] = v, v

		s.phase += s.freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *sine) Err() error { return nil }

// envelope fades a stream in over attack and out over its last release
// samples so notes start and stop without clicks.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) *envelope {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(d),
	}
}

func (e *envelope) gain() float64 {
	switch {
	case e.attack > 0 && e.position < e.attack:
		return float64(e.position) / float64(e.attack)
	case e.release > 0 && e.position >= e.total-e.release:
		return math.Max(0, float64(e.total-e.position)/float64(e.release))
	}
	return 1
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.gain()
		samples[i][0] *= g
		samples[i][1] *= g
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// note is a shaped sine of the given frequency.
func note(freq float64, d time.Duration, rate beep.SampleRate) beep.Streamer {
	return newEnvelope(newSine(freq, d, rate), d, 5*time.Millisecond, d/2, rate)
}

// withVolume scales s linearly; zero or less is silent.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
