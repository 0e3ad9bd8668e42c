// Package dispatch coordinates model initialization and pooled inference on
// top of the registry, a provider, and the worker pool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/pool"
	"inferd/internal/provider"
	"inferd/internal/registry"
	"inferd/pkg/completion"
	"inferd/pkg/types"
)

// Config carries dispatcher tunables.
type Config struct {
	// Catalog seeds the set of known model specs. Names outside the
	// catalog can still be initialized with an explicit spec.
	Catalog []types.ModelSpec
	// Workers and QueueDepth size the inference pool; zero values take
	// the pool defaults.
	Workers    int
	QueueDepth int
	// Provider supplies model initialization. Required.
	Provider provider.Provider
	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
	// Logger scopes dispatcher logging; pass zerolog.Nop() to silence.
	Logger zerolog.Logger
}

// Dispatcher is the process-wide facade for model lifecycle and inference.
// Construct one in main and inject it where needed; there is no
// package-level instance.
type Dispatcher struct {
	reg  *registry.Registry
	pool *pool.Pool
	prov provider.Provider
	pub  EventPublisher
	log  zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*completion.Handle[bool]
	specs    map[string]types.ModelSpec
	released bool

	startTime time.Time
}

func New(cfg Config) (*Dispatcher, error) {
	if cfg.Provider == nil {
		return nil, errors.New("dispatch: Provider is required")
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}
	specs := make(map[string]types.ModelSpec, len(cfg.Catalog))
	for _, spec := range cfg.Catalog {
		if !spec.Type.Valid() {
			return nil, fmt.Errorf("dispatch: catalog model %s: invalid type %q", spec.Name, spec.Type)
		}
		specs[spec.Name] = spec
	}
	return &Dispatcher{
		reg:       registry.New(),
		pool:      pool.New(pool.Config{Workers: cfg.Workers, QueueDepth: cfg.QueueDepth}),
		prov:      cfg.Provider,
		pub:       pub,
		log:       cfg.Logger,
		inflight:  make(map[string]*completion.Handle[bool]),
		specs:     specs,
		startTime: time.Now(),
	}, nil
}

func (d *Dispatcher) publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	d.pub.Publish(e)
}

// Ready reports whether at least one model can serve inference.
func (d *Dispatcher) Ready() bool {
	return d.reg.Counts()[types.StateReady] > 0
}

// Released reports whether Release has run.
func (d *Dispatcher) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// State reports the lifecycle state of name. Names never registered
// report an unknown-model error.
func (d *Dispatcher) State(name string) (types.ModelState, error) {
	return d.reg.State(name)
}

// spec returns the remembered spec for name.
func (d *Dispatcher) spec(name string) (types.ModelSpec, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.specs[name]
	return s, ok
}

// CatalogSpecs returns the known specs sorted by name.
func (d *Dispatcher) CatalogSpecs() []types.ModelSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.ModelSpec, 0, len(d.specs))
	for _, s := range d.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Models merges catalog entries with live registry state for GET /models.
// Catalog models that were never initialized show as unregistered.
func (d *Dispatcher) Models() []types.ModelStatus {
	statuses := d.reg.Snapshot()
	seen := make(map[string]bool, len(statuses))
	for i := range statuses {
		seen[statuses[i].Name] = true
		if s, ok := d.spec(statuses[i].Name); ok {
			statuses[i].Type = s.Type
		}
	}
	for _, s := range d.CatalogSpecs() {
		if !seen[s.Name] {
			statuses = append(statuses, types.ModelStatus{
				Name:  s.Name,
				Type:  s.Type,
				State: types.StateUnregistered,
			})
		}
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// Status returns a point-in-time view for the status surface.
func (d *Dispatcher) Status() types.StatusResponse {
	return types.StatusResponse{
		Models: d.Models(),
		Counts: d.reg.Counts(),
		Pool: types.PoolStatus{
			QueueLen:   d.pool.Len(),
			QueueDepth: d.pool.Cap(),
			Workers:    d.pool.Workers(),
			Closed:     d.pool.Closed(),
		},
		UptimeSeconds:  int64(time.Since(d.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
}

// Release drains inference: the pool stops accepting work, queued tasks
// finish, and their handles settle. The registry is left intact so state
// queries stay truthful after drain; per-model teardown goes through
// Reset. Safe to call more than once.
func (d *Dispatcher) Release(ctx context.Context) error {
	d.mu.Lock()
	already := d.released
	d.released = true
	d.mu.Unlock()
	if already {
		return nil
	}
	d.publish(Event{Name: EventRelease})
	d.log.Info().Msg("dispatcher released, draining pool")
	d.pool.Shutdown()
	return d.pool.Drain(ctx)
}

// Close releases the dispatcher and closes every live model handle. Used
// at daemon shutdown; the API-level release keeps models addressable.
func (d *Dispatcher) Close(ctx context.Context) error {
	err := d.Release(ctx)
	for _, name := range d.reg.Names() {
		m, derr := d.reg.Deactivate(name)
		if derr != nil || m == nil {
			continue
		}
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Reset returns a ready or failed model to unregistered so it can be
// initialized again, closing its handle if one is bound. Resetting a model
// mid-initialization is rejected as an invalid transition.
func (d *Dispatcher) Reset(name string) error {
	m, err := d.reg.Deactivate(name)
	if err != nil {
		return err
	}
	d.publish(Event{Name: EventReset, Model: name})
	d.log.Info().Str("model", name).Msg("model reset")
	if m != nil {
		return m.Close()
	}
	return nil
}
