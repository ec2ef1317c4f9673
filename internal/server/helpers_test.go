package server

import (
	"sync"

	"github.com/ayusman/giftwrap/internal/config"
	"github.com/ayusman/giftwrap/internal/morph"
)

type fakeController struct {
	mu        sync.Mutex
	assembled bool
	tracking  bool
	tunables  config.Tunables
}

func newFakeController() *fakeController {
	return &fakeController{
		assembled: true,
		tunables:  config.Tunables{Rates: morph.DefaultRates(), Threshold: 2},
	}
}

func (f *fakeController) Assembled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assembled
}

func (f *fakeController) SetAssembled(v bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := f.assembled != v
	f.assembled = v
	return changed
}

func (f *fakeController) Toggle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assembled = !f.assembled
	return f.assembled
}

func (f *fakeController) Tracking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracking
}

func (f *fakeController) SetTracking(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracking = enabled
	return nil
}

func (f *fakeController) Status() string {
	if f.Tracking() {
		return "no hand"
	}
	return "camera off"
}

func (f *fakeController) Tunables() config.Tunables {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tunables
}

func (f *fakeController) SetTunables(t config.Tunables) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tunables = t
	return nil
}
