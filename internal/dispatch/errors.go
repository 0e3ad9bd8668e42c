package dispatch

import "errors"

// operationFailureError wraps the cause of a failed inference operation so
// callers can tell op failures apart from dispatch failures (unknown model,
// not ready, pool closed). The cause is never lost; Unwrap exposes it.
type operationFailureError struct {
	model string
	opID  string
	cause error
}

func (e operationFailureError) Error() string {
	return "operation failed on model " + e.model + ": " + e.cause.Error()
}

func (e operationFailureError) Unwrap() error { return e.cause }

// ErrOperationFailure constructs an operationFailureError.
func ErrOperationFailure(model, opID string, cause error) error {
	return operationFailureError{model: model, opID: opID, cause: cause}
}

// IsOperationFailure reports whether err carries a failed inference operation.
func IsOperationFailure(err error) bool {
	var t operationFailureError
	return errors.As(err, &t)
}
