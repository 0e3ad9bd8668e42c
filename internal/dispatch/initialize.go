package dispatch

import (
	"context"
	"sync/atomic"

	"inferd/internal/provider"
	"inferd/pkg/completion"
	"inferd/pkg/types"
)

// Initialize drives spec toward ready and returns a handle that resolves
// true on success and false on failure; failing to initialize is an
// outcome, not a handle error. Concurrent callers for the same name share
// one handle and exactly one provider call is made. A model already ready
// resolves true immediately; one already failed resolves false until it is
// Reset. There is no internal timeout: if the provider never reports back,
// the handle stays open and callers bound their own waits with Await.
func (d *Dispatcher) Initialize(ctx context.Context, spec types.ModelSpec) *completion.Handle[bool] {
	d.mu.Lock()
	if h, ok := d.inflight[spec.Name]; ok {
		d.mu.Unlock()
		return h
	}
	switch d.reg.StateOr(spec.Name) {
	case types.StateReady:
		d.mu.Unlock()
		return completion.Resolved(true)
	case types.StateFailed:
		d.mu.Unlock()
		return completion.Resolved(false)
	}
	if err := d.reg.Register(spec.Name); err != nil {
		d.mu.Unlock()
		return completion.Failed[bool](err)
	}
	if err := d.reg.Transition(spec.Name, types.StateInitializing); err != nil {
		d.mu.Unlock()
		return completion.Failed[bool](err)
	}
	h := completion.New[bool]()
	d.inflight[spec.Name] = h
	if _, known := d.specs[spec.Name]; !known {
		d.specs[spec.Name] = spec
	}
	d.mu.Unlock()

	d.publish(Event{Name: EventInitStart, Model: spec.Name})
	d.log.Info().Str("model", spec.Name).Str("type", spec.Type.String()).Msg("initialization started")

	l := &initListener{d: d, handle: h}
	if err := d.prov.Initialize(ctx, spec, l); err != nil {
		// Could not start; no callbacks will follow.
		l.OnInitFailed(spec.Name, err)
	}
	return h
}

// InitializeModel is the by-name form: the spec comes from the catalog
// when present, otherwise a bare spec is built from the arguments.
func (d *Dispatcher) InitializeModel(ctx context.Context, name string, typ types.ModelType) *completion.Handle[bool] {
	spec, ok := d.spec(name)
	if !ok {
		spec = types.ModelSpec{Name: name, Type: typ}
	}
	return d.Initialize(ctx, spec)
}

// InitializeAll starts every catalog model and returns a handle that
// resolves true iff at least one of them reached ready: a daemon with a
// single live model still serves. An empty catalog resolves false.
func (d *Dispatcher) InitializeAll(ctx context.Context) *completion.Handle[bool] {
	specs := d.CatalogSpecs()
	if len(specs) == 0 {
		return completion.Resolved(false)
	}
	handles := make([]*completion.Handle[bool], 0, len(specs))
	for _, spec := range specs {
		handles = append(handles, d.Initialize(ctx, spec))
	}
	out := completion.New[bool]()
	go func() {
		anyReady := false
		for _, h := range handles {
			if ok, err := h.Await(ctx); err == nil && ok {
				anyReady = true
			}
		}
		out.Resolve(anyReady)
	}()
	return out
}

// initListener bridges provider callbacks for one initialization into
// registry transitions and the shared handle. The terminal guard drops
// duplicate or out-of-order terminal callbacks, so each initialization
// settles exactly once.
type initListener struct {
	d        *Dispatcher
	handle   *completion.Handle[bool]
	started  atomic.Bool
	terminal atomic.Bool
}

func (l *initListener) OnInitStarted(name string) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	l.d.log.Debug().Str("model", name).Msg("provider reported start")
}

func (l *initListener) OnInitReady(name string, m provider.Model) {
	d := l.d
	if !l.terminal.CompareAndSwap(false, true) {
		// Late duplicate; don't leak the handle it carries.
		if m != nil {
			_ = m.Close()
		}
		return
	}
	if err := d.reg.Activate(name, m); err != nil {
		if m != nil {
			_ = m.Close()
		}
		d.log.Warn().Str("model", name).Err(err).Msg("ready callback could not activate")
		d.finishInit(name, l.handle, false)
		return
	}
	d.publish(Event{Name: EventInitReady, Model: name})
	d.log.Info().Str("model", name).Msg("model ready")
	d.finishInit(name, l.handle, true)
}

func (l *initListener) OnInitFailed(name string, cause error) {
	d := l.d
	if !l.terminal.CompareAndSwap(false, true) {
		return
	}
	if err := d.reg.SetFailed(name, cause); err != nil {
		d.log.Warn().Str("model", name).Err(err).Msg("failed callback could not transition")
	}
	d.publish(Event{Name: EventInitFailed, Model: name, Fields: map[string]any{"error": cause.Error()}})
	d.log.Warn().Str("model", name).Err(cause).Msg("initialization failed")
	d.finishInit(name, l.handle, false)
}

// finishInit clears the in-flight slot and settles the shared handle.
func (d *Dispatcher) finishInit(name string, h *completion.Handle[bool], ok bool) {
	d.mu.Lock()
	delete(d.inflight, name)
	d.mu.Unlock()
	h.Resolve(ok)
}
