package types

// ModelState is the lifecycle state of a named model.
type ModelState string

const (
	// StateUnregistered means the name is tracked but initialization has not begun.
	StateUnregistered ModelState = "unregistered"
	// StateInitializing means initialization is in flight.
	StateInitializing ModelState = "initializing"
	// StateReady means the model is live and can serve inference.
	StateReady ModelState = "ready"
	// StateFailed means initialization failed; a reset is required before retrying.
	StateFailed ModelState = "failed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s ModelState) Valid() bool {
	switch s {
	case StateUnregistered, StateInitializing, StateReady, StateFailed:
		return true
	}
	return false
}

func (s ModelState) String() string { return string(s) }

// ModelType selects the capability a model exposes.
type ModelType string

const (
	// TypeVector models map input vectors to output vectors.
	TypeVector ModelType = "vector"
	// TypeText models complete prompts.
	TypeText ModelType = "text"
)

// Valid reports whether t is a known model type.
func (t ModelType) Valid() bool {
	return t == TypeVector || t == TypeText
}

func (t ModelType) String() string { return string(t) }

// ModelSpec describes a model known to the daemon before it is initialized.
type ModelSpec struct {
	// Stable name used in API paths and registry lookups.
	// example: embedder-small
	Name string `json:"name" example:"embedder-small"`
	// Capability the backing model exposes.
	// example: vector
	Type ModelType `json:"type" example:"vector"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/embedder-small.gguf
	Path string `json:"path" example:"/home/user/models/embedder-small.gguf"`
}
