package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inferd/pkg/types"
)

// captureListener records callbacks for assertions.
type captureListener struct {
	started chan string
	ready   chan Model
	failed  chan error
}

func newCaptureListener() *captureListener {
	return &captureListener{
		started: make(chan string, 1),
		ready:   make(chan Model, 1),
		failed:  make(chan error, 1),
	}
}

func (c *captureListener) OnInitStarted(name string)      { c.started <- name }
func (c *captureListener) OnInitReady(_ string, m Model)  { c.ready <- m }
func (c *captureListener) OnInitFailed(_ string, e error) { c.failed <- e }

func TestEchoInitializeReady(t *testing.T) {
	t.Parallel()
	l := newCaptureListener()
	p := NewEcho()
	spec := types.ModelSpec{Name: "m1", Type: types.TypeVector}
	if err := p.Initialize(context.Background(), spec, l); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	select {
	case name := <-l.started:
		if name != "m1" {
			t.Fatalf("started name = %q", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("no started callback")
	}
	select {
	case m := <-l.ready:
		if m.Name() != "m1" {
			t.Fatalf("model name = %q", m.Name())
		}
	case err := <-l.failed:
		t.Fatalf("unexpected failure: %v", err)
	case <-time.After(time.Second):
		t.Fatalf("no terminal callback")
	}
}

func TestEchoInitializeMissingPathFails(t *testing.T) {
	t.Parallel()
	l := newCaptureListener()
	p := NewEcho()
	spec := types.ModelSpec{
		Name: "broken",
		Type: types.TypeText,
		Path: filepath.Join(t.TempDir(), "missing.gguf"),
	}
	if err := p.Initialize(context.Background(), spec, l); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	select {
	case err := <-l.failed:
		if err == nil {
			t.Fatalf("failed callback with nil error")
		}
	case <-l.ready:
		t.Fatalf("ready for a missing model file")
	case <-time.After(time.Second):
		t.Fatalf("no terminal callback")
	}
}

func TestEchoInitializeExistingPath(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "m.gguf")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := newCaptureListener()
	if err := NewEcho().Initialize(context.Background(), types.ModelSpec{Name: "m", Type: types.TypeText, Path: path}, l); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	select {
	case <-l.ready:
	case err := <-l.failed:
		t.Fatalf("unexpected failure: %v", err)
	case <-time.After(time.Second):
		t.Fatalf("no terminal callback")
	}
}

func TestEchoInitializeRejectsUnknownType(t *testing.T) {
	t.Parallel()
	l := newCaptureListener()
	err := NewEcho().Initialize(context.Background(), types.ModelSpec{Name: "m", Type: "audio"}, l)
	if err == nil {
		t.Fatalf("expected synchronous error for unknown type")
	}
}

func TestEchoModelCapabilities(t *testing.T) {
	t.Parallel()
	m := &echoModel{name: "m"}

	var vm VectorModel = m
	out, err := vm.Infer(context.Background(), []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if len(out) != 3 || out[0] != 1 || out[2] != 3 {
		t.Fatalf("Infer out = %v", out)
	}

	var tm TextModel = m
	text, err := tm.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "hello" {
		t.Fatalf("Complete = %q", text)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := vm.Infer(context.Background(), []float32{1}); err == nil {
		t.Fatalf("Infer after Close should fail")
	}
}

func TestLlamaStubFailsFast(t *testing.T) {
	t.Parallel()
	if LlamaBuilt() {
		t.Skip("built with llama support")
	}
	l := newCaptureListener()
	err := NewLlama(2048, 4).Initialize(context.Background(), types.ModelSpec{Name: "m", Type: types.TypeText, Path: "/tmp/m.gguf"}, l)
	if err == nil {
		t.Fatalf("stub Initialize should error")
	}
	if !IsUnavailable(err) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}

func TestUnavailableError(t *testing.T) {
	t.Parallel()
	err := ErrUnavailable("backend gone")
	if !IsUnavailable(err) {
		t.Fatalf("IsUnavailable(ErrUnavailable) = false")
	}
	if IsUnavailable(context.Canceled) {
		t.Fatalf("IsUnavailable(context.Canceled) = true")
	}
}
