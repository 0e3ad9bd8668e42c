package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inferd/internal/pool"
	"inferd/internal/provider"
	"inferd/pkg/completion"
)

// Request identifies one inference through the pool, logs, and events.
type Request struct {
	OpID        string
	Model       string
	SubmittedAt time.Time
}

// Infer runs op against the named model on the worker pool and returns the
// handle immediately, along with the operation id assigned to this run. The
// readiness check happens before submission, so unknown or not-ready models
// fail fast without consuming a pool slot. The op's error or panic settles
// the handle with an operation failure that wraps the cause; dispatch-level
// failures (unknown model, not ready, pool closed, too busy) surface
// unwrapped. ctx flows into op for cancellation; it does not cancel the
// queue wait.
func Infer[T any](ctx context.Context, d *Dispatcher, model string, op func(ctx context.Context, m provider.Model) (T, error)) (*completion.Handle[T], string) {
	req := Request{OpID: uuid.NewString(), Model: model, SubmittedAt: time.Now()}

	if _, err := d.reg.Get(model); err != nil {
		d.publish(Event{
			Name:   EventInferRejected,
			Model:  model,
			OpID:   req.OpID,
			Fields: map[string]any{"error": err.Error()},
		})
		return completion.Failed[T](err), req.OpID
	}

	h := pool.Submit(d.pool, func() (T, error) {
		var zero T
		// Re-fetch: the model may have been reset between the readiness
		// check and this task running.
		m, err := d.reg.Get(model)
		if err != nil {
			d.publishInferDone(req, err)
			return zero, err
		}
		start := time.Now()
		v, err := runOp(ctx, m, op)
		if err != nil {
			wrapped := ErrOperationFailure(model, req.OpID, err)
			d.publishInferDone(req, wrapped)
			return zero, wrapped
		}
		d.publish(Event{
			Name:   EventInferOK,
			Model:  model,
			OpID:   req.OpID,
			Fields: map[string]any{"dur_ms": time.Since(start).Milliseconds()},
		})
		return v, nil
	})

	if h.Settled() {
		if _, err := h.Result(); err != nil && (pool.IsClosed(err) || pool.IsTooBusy(err)) {
			d.publish(Event{
				Name:   EventInferRejected,
				Model:  model,
				OpID:   req.OpID,
				Fields: map[string]any{"error": err.Error()},
			})
		}
	} else {
		d.publish(Event{Name: EventInferSubmit, Model: model, OpID: req.OpID})
	}
	return h, req.OpID
}

func (d *Dispatcher) publishInferDone(req Request, err error) {
	d.publish(Event{
		Name:   EventInferFailed,
		Model:  req.Model,
		OpID:   req.OpID,
		Fields: map[string]any{"error": err.Error()},
	})
	d.log.Warn().Str("model", req.Model).Str("op_id", req.OpID).Err(err).Msg("inference failed")
}

// runOp executes op with a panic backstop so a panicking operation fails
// only its own handle.
func runOp[T any](ctx context.Context, m provider.Model, op func(context.Context, provider.Model) (T, error)) (v T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("op panic: %v", rec)
		}
	}()
	return op(ctx, m)
}

// InferVector runs a vector inference against name. A model that lacks the
// vector capability fails the operation.
func (d *Dispatcher) InferVector(ctx context.Context, name string, input []float32) (*completion.Handle[[]float32], string) {
	return Infer(ctx, d, name, func(ctx context.Context, m provider.Model) ([]float32, error) {
		vm, ok := m.(provider.VectorModel)
		if !ok {
			return nil, fmt.Errorf("model %s does not support vector inference", name)
		}
		return vm.Infer(ctx, input)
	})
}

// InferText runs a prompt completion against name. A model that lacks the
// text capability fails the operation.
func (d *Dispatcher) InferText(ctx context.Context, name, prompt string) (*completion.Handle[string], string) {
	return Infer(ctx, d, name, func(ctx context.Context, m provider.Model) (string, error) {
		tm, ok := m.(provider.TextModel)
		if !ok {
			return "", fmt.Errorf("model %s does not support text inference", name)
		}
		return tm.Complete(ctx, prompt)
	})
}
