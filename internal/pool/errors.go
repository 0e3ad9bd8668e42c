package pool

import "errors"

// poolClosedError signals a submission after Shutdown, for 503 mapping.
type poolClosedError struct{}

func (poolClosedError) Error() string { return "worker pool closed" }

// ErrClosed constructs a poolClosedError.
func ErrClosed() error { return poolClosedError{} }

// IsClosed reports whether err indicates the pool no longer accepts work.
func IsClosed(err error) bool {
	var t poolClosedError
	return errors.As(err, &t)
}

// tooBusyError signals a full queue, for 429 mapping.
type tooBusyError struct{}

func (tooBusyError) Error() string { return "worker pool queue full" }

// ErrTooBusy constructs a tooBusyError.
func ErrTooBusy() error { return tooBusyError{} }

// IsTooBusy reports whether err indicates backpressure.
func IsTooBusy(err error) bool {
	var t tooBusyError
	return errors.As(err, &t)
}
