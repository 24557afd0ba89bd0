package engine

import "time"

// Side is the viewport edge a target enters from
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Target is a live clickable firework
type Target struct {
	ID        uint64        `json:"id"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	VX        float64       `json:"vx"` // pixels per second, sign gives direction
	Size      float64       `json:"size"`
	Side      Side          `json:"side"`
	Golden    bool          `json:"golden"`
	SpawnedAt time.Duration `json:"spawned_at"` // simulation time
}

// Radius is the hit radius, half the rendered size
func (t *Target) Radius() float64 {
	return t.Size / 2
}

// Contains reports whether the point lies within the hit radius
func (t *Target) Contains(x, y float64) bool {
	dx, dy := x-t.X, y-t.Y
	r := t.Radius()
	return dx*dx+dy*dy <= r*r
}

// outside reports whether the target has drifted fully past the far edge
func (t *Target) outside(width float64) bool {
	r := t.Radius()
	if t.VX >= 0 {
		return t.X-r > width
	}
	return t.X+r < 0
}

// snapshot copies the target for hand-off outside the engine goroutine
func (t *Target) snapshot() *Target {
	c := *t
	return &c
}
