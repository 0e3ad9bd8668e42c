//go:build llama

package provider

// cgo link directives for the in-process llama backend.
// - An rpath of $ORIGIN lets the runtime loader find libllama.so and
//   libggml*.so in the same directory as the built Go binary (./bin).
// - -L${SRCDIR}/../../bin covers link time when building the 'llama' variant.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"

import (
	"context"
	"fmt"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"inferd/pkg/types"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// Llama loads gguf models in process through llama.cpp.
type Llama struct {
	ctxSize int
	threads int
}

// NewLlama returns a llama-backed provider with the given context window
// and thread count applied to every model it loads.
func NewLlama(ctxSize, threads int) *Llama {
	return &Llama{ctxSize: ctxSize, threads: threads}
}

func (p *Llama) Initialize(ctx context.Context, spec types.ModelSpec, l InitListener) error {
	if strings.TrimSpace(spec.Path) == "" {
		return fmt.Errorf("model %s: path is empty", spec.Name)
	}
	if spec.Type != types.TypeText {
		return fmt.Errorf("model %s: llama backend serves %s models only", spec.Name, types.TypeText)
	}
	go func() {
		l.OnInitStarted(spec.Name)
		m, err := llama.New(spec.Path, llama.SetContext(p.ctxSize))
		if err != nil {
			l.OnInitFailed(spec.Name, err)
			return
		}
		if ctx.Err() != nil {
			m.Free()
			l.OnInitFailed(spec.Name, ctx.Err())
			return
		}
		l.OnInitReady(spec.Name, &llamaModel{name: spec.Name, model: m, threads: p.threads})
	}()
	return nil
}

// llamaModel adapts a loaded llama.cpp model to the TextModel contract.
type llamaModel struct {
	name    string
	model   *llama.LLama
	threads int
}

func (m *llamaModel) Name() string { return m.name }

func (m *llamaModel) Complete(ctx context.Context, prompt string) (string, error) {
	// Bridge the token callback to cancellation; returning false stops
	// generation inside llama.cpp.
	m.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	text, err := m.model.Predict(prompt, llama.SetThreads(max(1, m.threads)))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (m *llamaModel) Close() error {
	if m.model != nil {
		m.model.Free()
		m.model = nil
	}
	return nil
}
