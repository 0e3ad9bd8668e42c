package dispatch

import "time"

// Event is one lifecycle or inference event. Minimal and stable: name plus
// model name, the op id where one exists, and optional fields via
// key/values.
type Event struct {
	Name   string
	Model  string
	OpID   string
	At     time.Time
	Fields map[string]any
}

// EventPublisher receives events from the dispatcher. Implementations
// should be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// Event names emitted by the dispatcher.
const (
	EventInitStart     = "init_start"
	EventInitReady     = "init_ready"
	EventInitFailed    = "init_failed"
	EventInferSubmit   = "infer_submit"
	EventInferOK       = "infer_ok"
	EventInferFailed   = "infer_failed"
	EventInferRejected = "infer_rejected"
	EventReset         = "reset"
	EventRelease       = "release"
)
