package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/pool"
	"inferd/internal/provider"
	"inferd/internal/registry"
	"inferd/pkg/types"
)

func TestInferUnknownModelFailsFast(t *testing.T) {
	t.Parallel()
	pub := NewMemoryPublisher()
	d := newTestDispatcher(t, &mockProvider{}, pub)
	defer d.Close(context.Background())

	h, opID := Infer(context.Background(), d, "ghost", func(context.Context, provider.Model) (int, error) {
		t.Error("op ran for an unknown model")
		return 0, nil
	})
	if opID == "" {
		t.Fatalf("op id missing")
	}
	if !h.Settled() {
		t.Fatalf("unknown model must fail fast")
	}
	if _, err := h.Await(context.Background()); !registry.IsUnknownModel(err) {
		t.Fatalf("err = %v, want unknown model", err)
	}

	// Nothing was submitted to the pool.
	if pub.Count(EventInferSubmit) != 0 {
		t.Fatalf("infer_submit events = %d, want 0", pub.Count(EventInferSubmit))
	}
	if pub.Count(EventInferRejected) != 1 {
		t.Fatalf("infer_rejected events = %d, want 1", pub.Count(EventInferRejected))
	}
}

func TestInferBeforeReadyFailsFast(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	prov := &mockProvider{script: func(spec types.ModelSpec, l provider.InitListener) {
		l.OnInitStarted(spec.Name)
		<-gate
		l.OnInitReady(spec.Name, &stubModel{name: spec.Name})
	}}
	pub := NewMemoryPublisher()
	d := newTestDispatcher(t, prov, pub)
	defer d.Close(context.Background())

	initHandle := d.InitializeModel(context.Background(), "m", types.TypeVector)

	h, _ := d.InferVector(context.Background(), "m", []float32{1})
	if !h.Settled() {
		t.Fatalf("inference mid-initialization must fail fast")
	}
	if _, err := h.Await(context.Background()); !registry.IsNotReady(err) {
		t.Fatalf("err = %v, want not ready", err)
	}
	if pub.Count(EventInferSubmit) != 0 {
		t.Fatalf("infer_submit events = %d, want 0", pub.Count(EventInferSubmit))
	}

	close(gate)
	if ok, err := initHandle.Await(context.Background()); err != nil || !ok {
		t.Fatalf("initialize = (%v, %v)", ok, err)
	}
}

func TestInferResolvesOpValue(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t, &mockProvider{}, nil)
	defer d.Close(context.Background())
	initReady(t, d, "m", types.TypeVector)

	h, _ := Infer(context.Background(), d, "m", func(context.Context, provider.Model) (int, error) {
		return 42, nil
	})
	v, err := h.Await(context.Background())
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if v != 42 {
		t.Fatalf("Await = %d, want 42", v)
	}
}

func TestInferOpErrorWrapsCause(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t, &mockProvider{}, nil)
	defer d.Close(context.Background())
	initReady(t, d, "m", types.TypeVector)

	cause := errors.New("tensor shape mismatch")
	h, _ := Infer(context.Background(), d, "m", func(context.Context, provider.Model) (int, error) {
		return 0, cause
	})
	_, err := h.Await(context.Background())
	if !IsOperationFailure(err) {
		t.Fatalf("err = %v, want operation failure", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestInferOpPanicWrapped(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t, &mockProvider{}, nil)
	defer d.Close(context.Background())
	initReady(t, d, "m", types.TypeVector)

	h, _ := Infer(context.Background(), d, "m", func(context.Context, provider.Model) (int, error) {
		panic("index out of range")
	})
	_, err := h.Await(context.Background())
	if !IsOperationFailure(err) {
		t.Fatalf("err = %v, want operation failure", err)
	}

	// The pool keeps serving after an op panic.
	h2, _ := Infer(context.Background(), d, "m", func(context.Context, provider.Model) (int, error) {
		return 7, nil
	})
	if v, err := h2.Await(context.Background()); err != nil || v != 7 {
		t.Fatalf("op after panic = (%d, %v), want (7, nil)", v, err)
	}
}

// vectorOnlyModel deliberately lacks the text capability.
type vectorOnlyModel struct{ name string }

func (m *vectorOnlyModel) Name() string { return m.name }
func (m *vectorOnlyModel) Close() error { return nil }
func (m *vectorOnlyModel) Infer(_ context.Context, in []float32) ([]float32, error) {
	out := make([]float32, len(in))
	copy(out, in)
	return out, nil
}

func TestInferCapabilityMismatchIsOperationFailure(t *testing.T) {
	t.Parallel()
	prov := &mockProvider{script: func(spec types.ModelSpec, l provider.InitListener) {
		l.OnInitStarted(spec.Name)
		l.OnInitReady(spec.Name, &vectorOnlyModel{name: spec.Name})
	}}
	d := newTestDispatcher(t, prov, nil)
	defer d.Close(context.Background())
	initReady(t, d, "m", types.TypeVector)

	textHandle, _ := d.InferText(context.Background(), "m", "hello")
	if _, err := textHandle.Await(context.Background()); !IsOperationFailure(err) {
		t.Fatalf("err = %v, want operation failure", err)
	}

	// The capability the model does carry keeps working.
	vecHandle, _ := d.InferVector(context.Background(), "m", []float32{1})
	if _, err := vecHandle.Await(context.Background()); err != nil {
		t.Fatalf("InferVector: %v", err)
	}
}

func TestInferAfterReleaseFailsPoolClosed(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t, &mockProvider{}, nil)
	initReady(t, d, "m", types.TypeVector)
	if err := d.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}

	h, _ := d.InferVector(context.Background(), "m", []float32{1})
	if _, err := h.Await(context.Background()); !pool.IsClosed(err) {
		t.Fatalf("err = %v, want pool closed", err)
	}
}

func TestInferResetBetweenCheckAndRun(t *testing.T) {
	t.Parallel()
	d, err := New(Config{
		Workers:    1,
		QueueDepth: 4,
		Provider:   &mockProvider{},
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close(context.Background())
	initReady(t, d, "m", types.TypeVector)

	// Occupy the single worker so the next inference stays queued.
	gate := make(chan struct{})
	running := make(chan struct{})
	blocker, _ := Infer(context.Background(), d, "m", func(context.Context, provider.Model) (int, error) {
		close(running)
		<-gate
		return 0, nil
	})
	<-running

	queued, _ := d.InferVector(context.Background(), "m", []float32{1})
	if queued.Settled() {
		t.Fatalf("inference should be queued behind the blocker")
	}

	// Reset while the task waits; the re-fetch inside the task must see it.
	if err := d.Reset("m"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	close(gate)

	if _, err := blocker.Await(context.Background()); err != nil {
		t.Fatalf("blocker: %v", err)
	}
	if _, err := queued.Await(context.Background()); !registry.IsNotReady(err) {
		t.Fatalf("queued err = %v, want not ready", err)
	}
}

func TestInferQueueFullTooBusy(t *testing.T) {
	t.Parallel()
	d, err := New(Config{
		Workers:    1,
		QueueDepth: 1,
		Provider:   &mockProvider{},
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close(context.Background())
	initReady(t, d, "m", types.TypeVector)

	gate := make(chan struct{})
	running := make(chan struct{})
	busy, _ := Infer(context.Background(), d, "m", func(context.Context, provider.Model) (int, error) {
		close(running)
		<-gate
		return 0, nil
	})
	<-running
	queued, _ := d.InferVector(context.Background(), "m", []float32{1})

	rejected, _ := d.InferVector(context.Background(), "m", []float32{1})
	if _, err := rejected.Await(context.Background()); !pool.IsTooBusy(err) {
		t.Fatalf("err = %v, want too busy", err)
	}

	close(gate)
	if _, err := busy.Await(context.Background()); err != nil {
		t.Fatalf("busy: %v", err)
	}
	if _, err := queued.Await(context.Background()); err != nil {
		t.Fatalf("queued: %v", err)
	}
}

func TestTwoOpsCompleteIndependently(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t, &mockProvider{}, nil)
	defer d.Close(context.Background())
	initReady(t, d, "m", types.TypeVector)

	const opTime = 50 * time.Millisecond
	slow := func(context.Context, provider.Model) (int, error) {
		time.Sleep(opTime)
		return 1, nil
	}
	start := time.Now()
	h1, _ := Infer(context.Background(), d, "m", slow)
	h2, _ := Infer(context.Background(), d, "m", slow)
	if _, err := h1.Await(context.Background()); err != nil {
		t.Fatalf("h1: %v", err)
	}
	if _, err := h2.Await(context.Background()); err != nil {
		t.Fatalf("h2: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 2*opTime {
		t.Fatalf("ops serialized: %v elapsed", elapsed)
	}
}

func TestInferTypedHelpers(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t, &mockProvider{}, nil)
	defer d.Close(context.Background())
	initReady(t, d, "m", types.TypeVector)

	vecHandle, vecOp := d.InferVector(context.Background(), "m", []float32{3, 1, 4})
	out, err := vecHandle.Await(context.Background())
	if err != nil {
		t.Fatalf("InferVector: %v", err)
	}
	if len(out) != 3 || out[0] != 3 || out[2] != 4 {
		t.Fatalf("out = %v", out)
	}

	textHandle, textOp := d.InferText(context.Background(), "m", "ping")
	text, err := textHandle.Await(context.Background())
	if err != nil {
		t.Fatalf("InferText: %v", err)
	}
	if text != "ping" {
		t.Fatalf("text = %q", text)
	}
	if vecOp == "" || textOp == "" || vecOp == textOp {
		t.Fatalf("op ids not distinct: %q vs %q", vecOp, textOp)
	}
}
