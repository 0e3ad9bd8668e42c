package registry

import (
	"errors"
	"fmt"

	"inferd/pkg/types"
)

// unknownModelError signals a name that was never registered, for 404 mapping.
type unknownModelError struct{ name string }

func (e unknownModelError) Error() string { return "unknown model: " + e.name }

// ErrUnknownModel constructs an unknownModelError.
func ErrUnknownModel(name string) error { return unknownModelError{name: name} }

// IsUnknownModel reports whether err indicates a never-registered model name.
func IsUnknownModel(err error) bool {
	var t unknownModelError
	return errors.As(err, &t)
}

// notReadyError signals a model that exists but cannot serve yet, for 409 mapping.
type notReadyError struct {
	name  string
	state types.ModelState
}

func (e notReadyError) Error() string {
	return fmt.Sprintf("model %s not ready (state %s)", e.name, e.state)
}

// ErrNotReady constructs a notReadyError.
func ErrNotReady(name string, state types.ModelState) error {
	return notReadyError{name: name, state: state}
}

// IsNotReady reports whether err indicates a model outside the ready state.
func IsNotReady(err error) bool {
	var t notReadyError
	return errors.As(err, &t)
}

// invalidTransitionError signals an illegal lifecycle edge.
type invalidTransitionError struct {
	name     string
	from, to types.ModelState
}

func (e invalidTransitionError) Error() string {
	return fmt.Sprintf("model %s: invalid transition %s -> %s", e.name, e.from, e.to)
}

// IsInvalidTransition reports whether err indicates an illegal lifecycle edge.
func IsInvalidTransition(err error) bool {
	var t invalidTransitionError
	return errors.As(err, &t)
}
