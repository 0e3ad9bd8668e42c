package types

// InferRequest is the payload accepted by POST /infer.
type InferRequest struct {
	// Name of the model to run against.
	// example: embedder-small
	Model string `json:"model" example:"embedder-small"`
	// Capability to invoke. Must match the model's type.
	// example: vector
	Type ModelType `json:"type" example:"vector"`
	// Input vector for vector models.
	// example: [0.1,0.2,0.3]
	Input []float32 `json:"input,omitempty"`
	// Prompt text for text models.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt,omitempty" example:"Write a haiku about the ocean."`
	// If false, return 202 with the operation id instead of blocking.
	// example: true
	Wait *bool `json:"wait,omitempty" example:"true"`
}

// InferResponse is returned by POST /infer.
type InferResponse struct {
	// Operation id assigned to this inference.
	// example: 7f9c24e8-3b0a-4f0b-9a6e-0d1c2b3a4f5e
	OpID string `json:"op_id" example:"7f9c24e8-3b0a-4f0b-9a6e-0d1c2b3a4f5e"`
	// Name of the model that served the request.
	// example: embedder-small
	Model string `json:"model" example:"embedder-small"`
	// Output vector, present for vector models.
	Output []float32 `json:"output,omitempty"`
	// Completion text, present for text models.
	// example: Waves fold into foam
	Text string `json:"text,omitempty" example:"Waves fold into foam"`
	// Wall time spent executing the operation, in milliseconds.
	// example: 52
	DurationMs int64 `json:"duration_ms" example:"52"`
}

// InitializeResponse is returned by POST /models/{name}/initialize.
type InitializeResponse struct {
	// Name of the model.
	// example: embedder-small
	Model string `json:"model" example:"embedder-small"`
	// Lifecycle state observed after the call.
	// example: initializing
	State ModelState `json:"state" example:"initializing"`
	// Initialization outcome; only present when the request waited.
	// example: true
	Succeeded *bool `json:"succeeded,omitempty" example:"true"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not ready
	Error string `json:"error" example:"model not ready"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
}

// ModelStatus summarizes one tracked model for GET /status and GET /models.
type ModelStatus struct {
	// Name of the model.
	// example: embedder-small
	Name string `json:"name" example:"embedder-small"`
	// Capability the model exposes, when known from the catalog.
	// example: vector
	Type ModelType `json:"type,omitempty" example:"vector"`
	// Current lifecycle state.
	// example: ready
	State ModelState `json:"state" example:"ready"`
	// Failure cause, set while state is failed.
	Error string `json:"error,omitempty"`
	// Last state change (unix seconds).
	// example: 1700000000
	UpdatedAtUnix int64 `json:"updated_at_unix" example:"1700000000"`
}

// PoolStatus reports worker pool occupancy for GET /status.
type PoolStatus struct {
	// Queued tasks not yet picked up by a worker.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Queue capacity before submissions are rejected.
	// example: 32
	QueueDepth int `json:"queue_depth" example:"32"`
	// Number of worker goroutines.
	// example: 4
	Workers int `json:"workers" example:"4"`
	// True once the pool has been shut down.
	// example: false
	Closed bool `json:"closed" example:"false"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Tracked models and their states.
	Models []ModelStatus `json:"models"`
	// Model counts keyed by lifecycle state.
	Counts map[ModelState]int `json:"counts"`
	// Worker pool occupancy.
	Pool PoolStatus `json:"pool"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ModelsResponse wraps the list returned by GET /models.
type ModelsResponse struct {
	// Known models with catalog info and live state.
	Models []ModelStatus `json:"models"`
}
