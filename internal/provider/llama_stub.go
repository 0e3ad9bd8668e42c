//go:build !llama

package provider

// No-CGO stub compiled when the 'llama' build tag is NOT set, keeping
// default builds and CI CGO-free. The real backend lives in llama.go
// (tagged 'llama').

import (
	"context"

	"inferd/pkg/types"
)

var llamaBuilt = false

// Llama is a stub that satisfies Provider but refuses to initialize
// without the 'llama' build tag. This avoids any mocked behavior in
// production binaries built without CGO support.
type Llama struct {
	ctxSize int
	threads int
}

func NewLlama(ctxSize, threads int) *Llama {
	return &Llama{ctxSize: ctxSize, threads: threads}
}

// Initialize fails fast with a synchronous error; no callbacks follow.
func (p *Llama) Initialize(_ context.Context, spec types.ModelSpec, _ InitListener) error {
	return ErrUnavailable("llama support not built (missing 'llama' build tag): " + spec.Name)
}
