// Package replay drives a pad from a recorded stream of pointer events.
//
// The stream is a sequence of JSON objects, one per event:
//
//	{"type":"layout","rect":{"left":8,"top":64}}
//	{"type":"mousedown","clientX":40,"clientY":90}
//	{"type":"touchmove","touches":[{"clientX":60,"clientY":90}]}
//	{"type":"mouseup"}
//	{"type":"wait"}
//	{"type":"clear"}
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Brownie44l1/sketchpad/internal/canvas"
)

// Event types understood by Run.
const (
	TypeLayout     = "layout"
	TypeMouseDown  = "mousedown"
	TypeMouseMove  = "mousemove"
	TypeMouseUp    = "mouseup"
	TypeMouseLeave = "mouseleave"
	TypeTouchStart = "touchstart"
	TypeTouchMove  = "touchmove"
	TypeTouchEnd   = "touchend"
	TypeClear      = "clear"
	TypeWait       = "wait"
)

// Record is one entry of an event stream.
type Record struct {
	Type string       `json:"type"`
	Rect *canvas.Rect `json:"rect,omitempty"`
	canvas.Event
}

// Target receives the replayed gestures.
type Target interface {
	PointerDown(ev canvas.Event)
	PointerMove(ev canvas.Event)
	PointerUp(ev canvas.Event)
	PointerLeave(ev canvas.Event)
	Clear()
	Wait()
}

// Relocatable targets accept a new bounding rectangle mid-stream.
type Relocatable interface {
	SetRect(rect canvas.Rect)
}

// Run decodes records from r and dispatches them to target until EOF or ctx ends.
// It returns the number of records dispatched.
func Run(ctx context.Context, r io.Reader, target Target) (int, error) {
	dec := json.NewDecoder(r)

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, fmt.Errorf("failed to decode event %d: %w", count+1, err)
		}

		if err := Dispatch(rec, target); err != nil {
			return count, fmt.Errorf("event %d: %w", count+1, err)
		}
		count++
	}
}

// Dispatch forwards a single record to target.
func Dispatch(rec Record, target Target) error {
	switch rec.Type {
	case TypeMouseDown, TypeTouchStart:
		target.PointerDown(rec.Event)
	case TypeMouseMove, TypeTouchMove:
		target.PointerMove(rec.Event)
	case TypeMouseUp, TypeTouchEnd:
		target.PointerUp(rec.Event)
	case TypeMouseLeave:
		target.PointerLeave(rec.Event)
	case TypeClear:
		target.Clear()
	case TypeWait:
		target.Wait()
	case TypeLayout:
		rt, ok := target.(Relocatable)
		if !ok {
			return errors.New("target does not accept layout changes")
		}
		if rec.Rect == nil {
			return errors.New("layout event without rect")
		}
		rt.SetRect(*rec.Rect)
	default:
		return fmt.Errorf("unknown event type %q", rec.Type)
	}

	slog.Debug("Replayed event", "type", rec.Type)
	return nil
}
