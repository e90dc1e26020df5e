// Package pad connects the drawing surface to the model.
//
// Every completed gesture rasterizes the surface and issues one inference
// request. Requests are tagged with the drawing generation they belong to; a
// result is applied only if no gesture, new stroke or clear happened since it
// was issued, so the latest gesture wins regardless of completion order.
package pad

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Brownie44l1/sketchpad/internal/canvas"
	"github.com/Brownie44l1/sketchpad/internal/inference"
	"github.com/Brownie44l1/sketchpad/internal/logging"
	"github.com/Brownie44l1/sketchpad/internal/metrics"
	"github.com/Brownie44l1/sketchpad/internal/model"
	"github.com/Brownie44l1/sketchpad/internal/raster"
	"github.com/google/uuid"
)

// ModelSource is the model session as seen by the pad.
type ModelSource interface {
	inference.SessionProvider
	Loading() bool
	Done() <-chan struct{}
}

// Option configures a Pad.
type Option func(*Pad)

// WithResampler selects the 280→28 downscale filter. Defaults to raster.Area.
func WithResampler(rs raster.Resampler) Option {
	return func(p *Pad) { p.resampler = rs }
}

// WithMetadata sets the class labels. Defaults to model.DigitMetadata.
func WithMetadata(md model.Metadata) Option {
	return func(p *Pad) { p.metadata = md }
}

// WithRect sets the surface's screen position used to locate pointer events.
func WithRect(rect canvas.Rect) Option {
	return func(p *Pad) { p.rect = rect }
}

// WithOnChange registers a callback receiving the projection after every state change.
// Callbacks are serialised.
func WithOnChange(fn func(inference.Projection)) Option {
	return func(p *Pad) { p.onChange = fn }
}

type Pad struct {
	models    ModelSource
	orch      *inference.Orchestrator
	resampler raster.Resampler
	metadata  model.Metadata
	onChange  func(inference.Projection)

	mu         sync.Mutex
	rect       canvas.Rect
	surface    *canvas.Surface
	state      inference.State
	generation uint64

	notifyMu sync.Mutex
	inflight sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a Pad drawing on surface and inferring through orch.
func New(models ModelSource, orch *inference.Orchestrator, surface *canvas.Surface, opts ...Option) *Pad {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pad{
		models:    models,
		orch:      orch,
		resampler: raster.Area(),
		metadata:  model.DigitMetadata(),
		surface:   surface,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.watchModel()
	return p
}

// watchModel publishes the end of the model's loading indicator.
func (p *Pad) watchModel() {
	select {
	case <-p.models.Done():
		p.notify()
	case <-p.ctx.Done():
	}
}

// Begin starts a gesture at pt. A gesture already in progress is left untouched.
// Starting a gesture invalidates the shown result and any request still in flight.
func (p *Pad) Begin(pt canvas.Point) {
	p.mu.Lock()
	if !p.surface.Begin(pt) {
		p.mu.Unlock()
		return
	}
	p.generation++
	p.state = inference.Idle(nil)
	p.mu.Unlock()

	p.notify()
}

func (p *Pad) Extend(pt canvas.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surface.Extend(pt)
}

// End finishes the gesture and issues exactly one inference request for the
// surface as it is now.
func (p *Pad) End() {
	p.mu.Lock()
	p.surface.End()
	input := raster.Rasterize(p.surface.Image(), p.resampler)
	p.generation++
	generation := p.generation
	p.state = inference.Loading()
	p.mu.Unlock()

	metrics.GesturesTotal.Inc()
	p.notify()

	p.inflight.Add(1)
	go p.infer(generation, uuid.NewString(), input)
}

// Clear blanks the surface and drops the result, including one still in flight.
func (p *Pad) Clear() {
	p.mu.Lock()
	p.surface.Clear()
	p.generation++
	p.state = inference.Idle(nil)
	p.mu.Unlock()

	metrics.ClearsTotal.Inc()
	p.notify()
}

func (p *Pad) SetRect(rect canvas.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rect = rect
}

func (p *Pad) locate(ev canvas.Event) canvas.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return canvas.Locate(ev, p.rect)
}

func (p *Pad) PointerDown(ev canvas.Event) { p.Begin(p.locate(ev)) }

func (p *Pad) PointerMove(ev canvas.Event) { p.Extend(p.locate(ev)) }

func (p *Pad) PointerUp(canvas.Event) { p.End() }

// PointerLeave ends the gesture if one is active.
func (p *Pad) PointerLeave(canvas.Event) {
	p.mu.Lock()
	drawing := p.surface.State() == canvas.Drawing
	p.mu.Unlock()

	if drawing {
		p.End()
	}
}

func (p *Pad) infer(generation uint64, gestureID string, input []float32) {
	defer p.inflight.Done()

	ctx := logging.WithGesture(p.ctx, gestureID)
	scores, err := p.orch.Infer(ctx, p.models, input, raster.InputShape)

	p.mu.Lock()
	if generation != p.generation {
		p.mu.Unlock()
		metrics.StaleResultsTotal.Inc()
		slog.DebugContext(ctx, "Discarding superseded inference result", "error", err)
		return
	}
	if err != nil {
		p.state = inference.Idle(err)
	} else {
		p.state = inference.Result(scores)
	}
	p.mu.Unlock()

	if err != nil {
		slog.WarnContext(ctx, "Inference produced no result", "error", err)
	} else if pred, ok := inference.Decide(scores, p.metadata); ok {
		metrics.PredictionsTotal.WithLabelValues(pred.Label).Inc()
		slog.InfoContext(ctx, "Prediction", "class", pred.Class, "label", pred.Label, "score", pred.Score)
	}

	p.notify()
}

func (p *Pad) notify() {
	if p.onChange == nil {
		return
	}
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	p.onChange(p.Projection())
}

// Projection returns the read-only view of the current state.
func (p *Pad) Projection() inference.Projection {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	return state.Project(p.models.Loading(), p.metadata)
}

func (p *Pad) State() inference.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Tensor rasterizes the surface as it is now.
func (p *Pad) Tensor() []float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return raster.Rasterize(p.surface.Image(), p.resampler)
}

// Wait blocks until every issued request has resolved.
func (p *Pad) Wait() {
	p.inflight.Wait()
}

// Close cancels outstanding requests and waits for them to return.
func (p *Pad) Close() {
	p.cancel()
	p.inflight.Wait()
}
