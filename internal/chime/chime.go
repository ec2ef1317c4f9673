// Package chime plays a short two-note cue whenever the tree wraps or
// unwraps.
package chime

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/ayusman/giftwrap/internal/assembly"
)

const sampleRate = beep.SampleRate(44100)

// Note frequencies and length of each cue note.
const (
	noteLow    = 659.25 // E5
	noteHigh   = 987.77 // B5
	noteLength = 120 * time.Millisecond
)

// Sound returns the cue for a transition: a rising pair when the tree
// assembles and a falling pair when it scatters.
func Sound(assembled bool, volume float64, rate beep.SampleRate) beep.Streamer {
	first, second := noteHigh, noteLow
	if assembled {
		first, second = noteLow, noteHigh
	}
	return withVolume(beep.Seq(
		note(first, noteLength, rate),
		note(second, noteLength, rate),
	), volume)
}

// Chime turns assembly changes into sounds.
type Chime struct {
	mu     sync.Mutex
	volume float64
	rate   beep.SampleRate
	play   func(beep.Streamer)
}

// New initializes the speaker and returns a chime at the given volume
// (0 to 1).
func New(volume float64) (*Chime, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	log.Printf("Chime enabled at volume %.2f", volume)
	return newChime(volume, sampleRate, func(s beep.Streamer) { speaker.Play(s) }), nil
}

func newChime(volume float64, rate beep.SampleRate, play func(beep.Streamer)) *Chime {
	return &Chime{volume: volume, rate: rate, play: play}
}

// SetVolume changes the volume of later cues.
func (c *Chime) SetVolume(volume float64) {
	c.mu.Lock()
	c.volume = volume
	c.mu.Unlock()
}

// Volume returns the current volume.
func (c *Chime) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// OnChange plays the cue for change. It is an assembly subscriber and
// returns without waiting for playback.
func (c *Chime) OnChange(change assembly.Change) {
	c.play(Sound(change.Assembled, c.Volume(), c.rate))
}

// Close stops any cue still playing.
func (c *Chime) Close() {
	speaker.Clear()
}
