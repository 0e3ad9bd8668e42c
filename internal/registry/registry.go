// Package registry tracks the lifecycle state of every named model and
// holds the live handle for models that reached ready.
package registry

import (
	"sort"
	"sync"
	"time"

	"inferd/internal/provider"
	"inferd/pkg/types"
)

// entry is one tracked model. The handle is non-nil iff state is ready;
// cause is non-nil iff state is failed.
type entry struct {
	state     types.ModelState
	model     provider.Model
	cause     error
	updatedAt time.Time
}

// Registry is safe for concurrent use. States only move forward
// (unregistered -> initializing -> ready|failed); the two reset edges
// (ready -> unregistered, failed -> unregistered) are the only way back.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Register creates the tracking entry for name in the unregistered state.
// Registering a name that is already tracked and still unregistered is a
// no-op; a name in any later state cannot be re-registered.
func (r *Registry) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		r.entries[name] = &entry{state: types.StateUnregistered, updatedAt: r.now()}
		return nil
	}
	if e.state == types.StateUnregistered {
		return nil
	}
	return invalidTransitionError{name: name, from: e.state, to: types.StateUnregistered}
}

// canTransition is the full edge table for the lifecycle.
func canTransition(from, to types.ModelState) bool {
	switch from {
	case types.StateUnregistered:
		return to == types.StateInitializing
	case types.StateInitializing:
		return to == types.StateReady || to == types.StateFailed
	case types.StateReady, types.StateFailed:
		return to == types.StateUnregistered
	}
	return false
}

// Transition moves name to state to iff the edge is legal. Transitions to
// ready should go through Activate so the handle is bound atomically.
func (r *Registry) Transition(name string, to types.ModelState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitionLocked(name, to)
}

func (r *Registry) transitionLocked(name string, to types.ModelState) error {
	e, ok := r.entries[name]
	if !ok {
		return unknownModelError{name: name}
	}
	if !canTransition(e.state, to) {
		return invalidTransitionError{name: name, from: e.state, to: to}
	}
	e.state = to
	e.updatedAt = r.now()
	if to != types.StateReady {
		e.model = nil
	}
	if to != types.StateFailed {
		e.cause = nil
	}
	return nil
}

// Activate performs initializing -> ready and binds the live handle in one
// critical section, so no reader can observe ready without a handle.
func (r *Registry) Activate(name string, m provider.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionLocked(name, types.StateReady); err != nil {
		return err
	}
	r.entries[name].model = m
	return nil
}

// SetFailed performs initializing -> failed and records the cause.
func (r *Registry) SetFailed(name string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionLocked(name, types.StateFailed); err != nil {
		return err
	}
	r.entries[name].cause = cause
	return nil
}

// Deactivate performs ready|failed -> unregistered and returns the handle
// that was bound, if any, so the caller can close it.
func (r *Registry) Deactivate(name string) (provider.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, unknownModelError{name: name}
	}
	m := e.model
	if err := r.transitionLocked(name, types.StateUnregistered); err != nil {
		return nil, err
	}
	return m, nil
}

// State returns the current lifecycle state of name. Names never
// registered report an unknown-model error; use StateOr for a soft read.
func (r *Registry) State(name string) (types.ModelState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return "", unknownModelError{name: name}
	}
	return e.state, nil
}

// StateOr returns the current state, or unregistered for unknown names.
func (r *Registry) StateOr(name string) types.ModelState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e.state
	}
	return types.StateUnregistered
}

// Cause returns the recorded failure for name, or nil.
func (r *Registry) Cause(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e.cause
	}
	return nil
}

// Get returns the live handle for name. It fails with unknown-model for
// names never registered and not-ready for any state other than ready.
func (r *Registry) Get(name string) (provider.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, unknownModelError{name: name}
	}
	if e.state != types.StateReady || e.model == nil {
		return nil, notReadyError{name: name, state: e.state}
	}
	return e.model, nil
}

// Names returns the tracked model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a point-in-time status copy of every entry, sorted by
// name for stable output.
func (r *Registry) Snapshot() []types.ModelStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ModelStatus, 0, len(r.entries))
	for name, e := range r.entries {
		st := types.ModelStatus{
			Name:          name,
			State:         e.state,
			UpdatedAtUnix: e.updatedAt.Unix(),
		}
		if e.cause != nil {
			st.Error = e.cause.Error()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Counts returns the number of tracked models per state.
func (r *Registry) Counts() map[types.ModelState]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[types.ModelState]int, 4)
	for _, e := range r.entries {
		counts[e.state]++
	}
	return counts
}
