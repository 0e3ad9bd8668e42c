package provider

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"inferd/internal/common/fsutil"
	"inferd/pkg/types"
)

// Echo serves inference without a native runtime: vector models return a
// copy of the input, text models return the prompt. It is the default
// backend for development builds and smoke tests. A spec with a non-empty
// Path must point at an existing file, which gives configs a way to
// exercise failed initialization end to end.
type Echo struct {
	// InitDelay, when positive, is applied before the terminal callback.
	InitDelay time.Duration
}

func NewEcho() *Echo { return &Echo{} }

func (p *Echo) Initialize(ctx context.Context, spec types.ModelSpec, l InitListener) error {
	if !spec.Type.Valid() {
		return fmt.Errorf("model %s: unknown type %q", spec.Name, spec.Type)
	}
	go func() {
		l.OnInitStarted(spec.Name)
		if p.InitDelay > 0 {
			select {
			case <-time.After(p.InitDelay):
			case <-ctx.Done():
				l.OnInitFailed(spec.Name, ctx.Err())
				return
			}
		}
		if spec.Path != "" && !fsutil.PathExists(spec.Path) {
			l.OnInitFailed(spec.Name, fmt.Errorf("model %s: %s: no such file", spec.Name, spec.Path))
			return
		}
		l.OnInitReady(spec.Name, &echoModel{name: spec.Name})
	}()
	return nil
}

// echoModel implements both capability contracts so either model type can
// run against it.
type echoModel struct {
	name   string
	closed atomic.Bool
}

func (m *echoModel) Name() string { return m.name }

func (m *echoModel) Infer(ctx context.Context, input []float32) ([]float32, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("model %s: closed", m.name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float32, len(input))
	copy(out, input)
	return out, nil
}

func (m *echoModel) Complete(ctx context.Context, prompt string) (string, error) {
	if m.closed.Load() {
		return "", fmt.Errorf("model %s: closed", m.name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return prompt, nil
}

func (m *echoModel) Close() error {
	m.closed.Store(true)
	return nil
}
