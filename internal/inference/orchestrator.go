// Package inference runs the model on a rasterized sketch and interprets its output.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Brownie44l1/sketchpad/internal/metrics"
	"github.com/Brownie44l1/sketchpad/internal/model"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrNotReady reports that no session is available, either because the
	// model is still loading or because it failed to load.
	ErrNotReady = errors.New("inference not ready")
	// ErrExecution reports that the engine failed or returned malformed output.
	ErrExecution = errors.New("inference execution failed")
)

// SessionProvider hands out the current session handle or explains why there is none.
type SessionProvider interface {
	Handle() (model.Handle, error)
}

// Orchestrator feeds input tensors to the session and validates what comes back.
type Orchestrator struct {
	clock   clockwork.Clock
	timeout time.Duration
	classes int
}

type Option func(*Orchestrator)

// WithClasses rejects score vectors that do not hold exactly n entries.
func WithClasses(n int) Option {
	return func(o *Orchestrator) { o.classes = n }
}

// NewOrchestrator creates an Orchestrator. A zero timeout waits for the engine indefinitely.
func NewOrchestrator(clock clockwork.Clock, timeout time.Duration, opts ...Option) *Orchestrator {
	o := &Orchestrator{clock: clock, timeout: timeout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type runResult struct {
	outputs map[string]model.Value
	err     error
}

// Infer runs one inference and returns the first declared output as a score vector.
// Inputs are fed under the session's first declared input name.
func (o *Orchestrator) Infer(ctx context.Context, sessions SessionProvider, input []float32, shape []int64) ([]float32, error) {
	if sessions == nil {
		metrics.InferenceRequestsTotal.WithLabelValues("not_ready").Inc()
		return nil, ErrNotReady
	}
	handle, err := sessions.Handle()
	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues("not_ready").Inc()
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	scores, err := o.run(ctx, handle, input, shape)
	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	metrics.InferenceRequestsTotal.WithLabelValues("success").Inc()
	return scores, nil
}

func (o *Orchestrator) run(ctx context.Context, handle model.Handle, input []float32, shape []int64) ([]float32, error) {
	inputNames := handle.InputNames
	outputNames := handle.OutputNames
	if len(inputNames) == 0 || len(outputNames) == 0 {
		return nil, errors.New("session declares no inputs or outputs")
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	feeds := map[string]model.Tensor{
		inputNames[0]: {Shape: shape, Data: input},
	}

	start := o.clock.Now()
	done := make(chan runResult, 1)
	go func() {
		outputs, err := handle.Run(ctx, feeds)
		done <- runResult{outputs: outputs, err: err}
	}()

	var res runResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	elapsed := o.clock.Since(start)
	metrics.InferenceDuration.Observe(elapsed.Seconds())
	slog.DebugContext(ctx, "Inference finished", "duration", elapsed, "error", res.err)

	if res.err != nil {
		return nil, res.err
	}

	output, ok := res.outputs[outputNames[0]]
	if !ok {
		return nil, fmt.Errorf("output %q missing from result", outputNames[0])
	}
	scores, ok := output.Data.([]float32)
	if !ok {
		return nil, fmt.Errorf("output %q is %T, want []float32", outputNames[0], output.Data)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("output %q is empty", outputNames[0])
	}
	if n := elements(output.Shape); n != len(scores) {
		return nil, fmt.Errorf("output %q has shape %v but %d elements", outputNames[0], output.Shape, len(scores))
	}
	if o.classes > 0 && len(scores) != o.classes {
		return nil, fmt.Errorf("output %q has %d scores, want one per class (%d)", outputNames[0], len(scores), o.classes)
	}
	return scores, nil
}

// elements is the element count of a tensor shape. A scalar has one element.
func elements(shape []int64) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return -1
		}
		n *= int(d)
	}
	return n
}
