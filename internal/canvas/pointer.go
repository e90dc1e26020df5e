package canvas

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Touch struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// Event is a pointer or touch payload in screen coordinates.
// Mouse events fill ClientX/ClientY; touch events fill Touches and/or ChangedTouches.
type Event struct {
	ClientX        float64 `json:"clientX"`
	ClientY        float64 `json:"clientY"`
	Touches        []Touch `json:"touches,omitempty"`
	ChangedTouches []Touch `json:"changedTouches,omitempty"`
}

// Rect is the origin of the surface's bounding rectangle in screen coordinates.
type Rect struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Locate converts an event to surface-local coordinates.
// Only the first touch is used when several are reported. A touch end
// carries its contact in ChangedTouches, so that list is the fallback.
func Locate(ev Event, rect Rect) Point {
	clientX, clientY := ev.ClientX, ev.ClientY
	switch {
	case len(ev.Touches) > 0:
		clientX, clientY = ev.Touches[0].ClientX, ev.Touches[0].ClientY
	case len(ev.ChangedTouches) > 0:
		clientX, clientY = ev.ChangedTouches[0].ClientX, ev.ChangedTouches[0].ClientY
	}
	return Point{X: clientX - rect.Left, Y: clientY - rect.Top}
}
