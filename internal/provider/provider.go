// Package provider defines the contract between the daemon core and the
// model backends, plus the backends the daemon ships.
package provider

import (
	"context"
	"errors"

	"inferd/pkg/types"
)

// Model is a live, initialized model.
type Model interface {
	Name() string
	Close() error
}

// VectorModel is a Model that maps an input vector to an output vector.
type VectorModel interface {
	Model
	Infer(ctx context.Context, input []float32) ([]float32, error)
}

// TextModel is a Model that completes prompts.
type TextModel interface {
	Model
	Complete(ctx context.Context, prompt string) (string, error)
}

// InitListener receives initialization progress for one model. A provider
// calls OnInitStarted at most once, then exactly one of OnInitReady or
// OnInitFailed. Listeners must be safe to call from provider goroutines.
type InitListener interface {
	OnInitStarted(name string)
	OnInitReady(name string, m Model)
	OnInitFailed(name string, err error)
}

// Provider starts model initialization. Initialize returns quickly and
// reports progress on l; a non-nil return means initialization could not
// start and no callbacks will follow.
type Provider interface {
	Initialize(ctx context.Context, spec types.ModelSpec, l InitListener) error
}

// unavailableError signals a missing native backend so the HTTP layer can
// return 503 Service Unavailable instead of 500.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing/failed backend.
func IsUnavailable(err error) bool {
	var t unavailableError
	return errors.As(err, &t)
}

// LlamaBuilt reports whether this binary carries the native llama backend.
func LlamaBuilt() bool { return llamaBuilt }
