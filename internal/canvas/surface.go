// Package canvas captures freehand strokes onto a fixed-size raster.
//
// A Surface is not safe for concurrent use; callers serialise access the way
// a UI event loop would.
package canvas

import (
	"image"

	"github.com/fogleman/gg"
)

const (
	// Size is the width and height of the raster in pixels.
	Size = 280
	// DefaultStrokeWidth is the pen width in pixels.
	DefaultStrokeWidth = 16.0
)

type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	if s == Drawing {
		return "drawing"
	}
	return "idle"
}

// Surface holds the rendered strokes and the live gesture state.
type Surface struct {
	dc          *gg.Context
	strokeWidth float64
	state       State
	paths       [][]Point
}

// NewSurface returns a blank white Size×Size surface drawing black ink of the given width.
// A non-positive width selects DefaultStrokeWidth.
func NewSurface(strokeWidth float64) *Surface {
	if strokeWidth <= 0 {
		strokeWidth = DefaultStrokeWidth
	}
	s := &Surface{
		dc:          gg.NewContext(Size, Size),
		strokeWidth: strokeWidth,
	}
	s.Clear()
	return s
}

func (s *Surface) State() State { return s.state }

// Begin starts a new path at p. It reports false and does nothing if a gesture is already active.
func (s *Surface) Begin(p Point) bool {
	if s.state == Drawing {
		return false
	}
	s.state = Drawing
	s.paths = append(s.paths, []Point{p})
	return true
}

// Extend draws a segment from the last recorded point to p.
// Outside an active gesture it reports false and does nothing.
func (s *Surface) Extend(p Point) bool {
	if s.state != Drawing {
		return false
	}
	path := s.paths[len(s.paths)-1]
	last := path[len(path)-1]

	s.dc.SetRGB(0, 0, 0)
	s.dc.SetLineWidth(s.strokeWidth)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.DrawLine(last.X, last.Y, p.X, p.Y)
	s.dc.Stroke()

	s.paths[len(s.paths)-1] = append(path, p)
	return true
}

// End finishes the active gesture. It reports whether a gesture was active.
func (s *Surface) End() bool {
	wasDrawing := s.state == Drawing
	s.state = Idle
	return wasDrawing
}

// Clear paints the raster white, discards every path and returns to Idle.
func (s *Surface) Clear() {
	s.dc.SetRGB(1, 1, 1)
	s.dc.Clear()
	s.paths = nil
	s.state = Idle
}

// Image returns the live raster. It changes as strokes are drawn.
func (s *Surface) Image() image.Image {
	return s.dc.Image()
}
