package plugin

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/giftwrap/internal/assembly"
	"github.com/ayusman/giftwrap/internal/store"
)

// maxConcurrent caps the number of plugin processes running at once.
const maxConcurrent = 4

// HookLister returns the enabled hooks for an event.
type HookLister interface {
	ListEnabled(event string) ([]*store.Hook, error)
}

// Result reports one finished hook run.
type Result struct {
	Hook     *store.Hook
	Response *Response
	Err      error
}

// Dispatcher runs the hooks bound to assembly transitions. Dispatch never
// blocks the caller; plugins run on their own goroutines.
type Dispatcher struct {
	hooks     HookLister
	plugins   *Manager
	executor  *Executor
	sessionID string
	onResult  func(Result)

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewDispatcher creates a dispatcher. onResult may be nil.
func NewDispatcher(hooks HookLister, plugins *Manager, executor *Executor, sessionID string, onResult func(Result)) *Dispatcher {
	return &Dispatcher{
		hooks:     hooks,
		plugins:   plugins,
		executor:  executor,
		sessionID: sessionID,
		onResult:  onResult,
		sem:       make(chan struct{}, maxConcurrent),
	}
}

// Dispatch starts every enabled hook for the change's event.
func (d *Dispatcher) Dispatch(ctx context.Context, change assembly.Change) {
	event := store.EventFor(change.Assembled)

	hooks, err := d.hooks.ListEnabled(event)
	if err != nil {
		log.Printf("Error listing %s hooks: %v", event, err)
		return
	}

	for _, h := range hooks {
		p, err := d.resolve(h, event)
		if err != nil {
			d.report(Result{Hook: h, Err: err})
			continue
		}

		req := &Request{
			Action:    h.ActionName,
			Event:     event,
			Assembled: change.Assembled,
			Source:    string(change.Source),
			Seq:       change.Seq,
			SessionID: d.sessionID,
			Config:    h.Config,
		}

		d.wg.Add(1)
		go d.run(ctx, h, p, req)
	}
}

func (d *Dispatcher) resolve(h *store.Hook, event string) (*Plugin, error) {
	p, err := d.plugins.Get(h.PluginName)
	if err != nil {
		return nil, fmt.Errorf("hook %s: %w: %s", h.ID, err, h.PluginName)
	}
	if !p.Manifest.HasAction(h.ActionName) {
		return nil, fmt.Errorf("hook %s: plugin %s has no action %q", h.ID, h.PluginName, h.ActionName)
	}
	if !p.Manifest.Handles(event) {
		return nil, fmt.Errorf("hook %s: plugin %s does not handle %s", h.ID, h.PluginName, event)
	}
	return p, nil
}

func (d *Dispatcher) run(ctx context.Context, h *store.Hook, p *Plugin, req *Request) {
	defer d.wg.Done()

	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		d.report(Result{Hook: h, Err: ctx.Err()})
		return
	}
	defer func() { <-d.sem }()

	resp, err := d.executor.Execute(ctx, p, req)
	if err == nil && !resp.Success {
		err = fmt.Errorf("plugin %s: %s", p.Manifest.Name, resp.Error)
	}
	d.report(Result{Hook: h, Response: resp, Err: err})
}

func (d *Dispatcher) report(r Result) {
	if r.Err != nil {
		log.Printf("Hook %s (%s/%s) failed: %v", r.Hook.ID, r.Hook.PluginName, r.Hook.ActionName, r.Err)
	}
	if d.onResult != nil {
		d.onResult(r)
	}
}

// Wait blocks until every started hook has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
