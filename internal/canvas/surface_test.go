package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isBlank(t *testing.T, img image.Image) bool {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || bl != 0xffff || a != 0xffff {
				return false
			}
		}
	}
	return true
}

func TestNewSurface_IsBlank(t *testing.T) {
	s := NewSurface(0)

	assert.Equal(t, image.Rect(0, 0, Size, Size), s.Image().Bounds())
	assert.True(t, isBlank(t, s.Image()))
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.paths)
}

func TestSurface_GestureStateMachine(t *testing.T) {
	s := NewSurface(DefaultStrokeWidth)

	assert.False(t, s.Extend(Point{X: 10, Y: 10}), "extend while idle is ignored")
	assert.Empty(t, s.paths)

	require.True(t, s.Begin(Point{X: 20, Y: 20}))
	assert.Equal(t, Drawing, s.State())
	assert.False(t, s.Begin(Point{X: 99, Y: 99}), "begin while drawing is ignored")

	assert.True(t, s.Extend(Point{X: 60, Y: 20}))
	assert.True(t, s.Extend(Point{X: 60, Y: 60}))
	assert.True(t, s.End())
	assert.Equal(t, Idle, s.State())
	assert.False(t, s.End(), "end while idle reports no active gesture")

	assert.Equal(t, [][]Point{{{20, 20}, {60, 20}, {60, 60}}}, s.paths)
	assert.False(t, isBlank(t, s.Image()))
	assert.Equal(t, color.RGBAModel.Convert(color.Black), color.RGBAModel.Convert(s.Image().At(40, 20)))
}

func TestSurface_PathPerGesture(t *testing.T) {
	s := NewSurface(DefaultStrokeWidth)

	s.Begin(Point{X: 1, Y: 1})
	s.Extend(Point{X: 2, Y: 2})
	s.End()
	s.Begin(Point{X: 3, Y: 3})
	s.End()

	paths := s.paths
	require.Len(t, paths, 2)
	assert.Equal(t, []Point{{1, 1}, {2, 2}}, paths[0])
	assert.Equal(t, []Point{{3, 3}}, paths[1])
}

func TestSurface_ZeroLengthGestureLeavesRasterBlank(t *testing.T) {
	s := NewSurface(DefaultStrokeWidth)

	s.Begin(Point{X: 140, Y: 140})
	s.End()

	assert.True(t, isBlank(t, s.Image()))
}

func TestSurface_ClearFromAnyState(t *testing.T) {
	s := NewSurface(DefaultStrokeWidth)

	s.Begin(Point{X: 10, Y: 10})
	s.Extend(Point{X: 200, Y: 200})
	s.Clear()

	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.paths)
	assert.True(t, isBlank(t, s.Image()))

	assert.False(t, s.Extend(Point{X: 100, Y: 100}), "clear ends the gesture")
	s.Clear()
	assert.True(t, isBlank(t, s.Image()))
}

func TestLocate(t *testing.T) {
	rect := Rect{Left: 100, Top: 50}

	tests := []struct {
		name string
		ev   Event
		want Point
	}{
		{
			name: "mouse",
			ev:   Event{ClientX: 130, ClientY: 90},
			want: Point{X: 30, Y: 40},
		},
		{
			name: "first of several touches",
			ev: Event{
				ClientX: 999, ClientY: 999,
				Touches: []Touch{{ClientX: 110, ClientY: 60}, {ClientX: 300, ClientY: 300}},
			},
			want: Point{X: 10, Y: 10},
		},
		{
			name: "touch end falls back to changed touches",
			ev:   Event{ChangedTouches: []Touch{{ClientX: 150, ClientY: 150}, {ClientX: 0, ClientY: 0}}},
			want: Point{X: 50, Y: 100},
		},
		{
			name: "touches win over changed touches",
			ev: Event{
				Touches:        []Touch{{ClientX: 101, ClientY: 51}},
				ChangedTouches: []Touch{{ClientX: 200, ClientY: 200}},
			},
			want: Point{X: 1, Y: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Locate(tt.ev, rect))
		})
	}
}
