// Package path holds the reference path the vehicle follows: an ordered, immutable list of
// waypoints addressed modulo its length, and the Store that owns it after a load.
package path

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyPath is returned when an operation needs a loaded, non-empty path.
	ErrEmptyPath = errors.New("path is empty")
	// ErrAlreadyLoaded is returned when a path is loaded twice under the reject reload policy.
	ErrAlreadyLoaded = errors.New("path already loaded")
)

// Waypoint is one sample of the reference path.
type Waypoint struct {
	Position r3.Vector
	// Heading is the yaw at this waypoint, in radians.
	Heading float64
	// Speed is the target speed in units per second.
	Speed float64
}

func (w Waypoint) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f) heading %.3f speed %.3f",
		w.Position.X, w.Position.Y, w.Position.Z, w.Heading, w.Speed)
}

// Path is an ordered sequence of waypoints in travel order. A Path is never mutated after
// construction, so a *Path can be shared between goroutines.
type Path struct {
	waypoints []Waypoint
}

// New copies points into a new Path.
func New(points []Waypoint) *Path {
	waypoints := make([]Waypoint, len(points))
	copy(waypoints, points)
	return &Path{waypoints: waypoints}
}

// Len returns the number of waypoints. A nil Path has length zero.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.waypoints)
}

// At returns the waypoint at index i mod Len(); negative indices count back from the end. At
// panics on an empty path, callers check Len first.
func (p *Path) At(i int) Waypoint {
	return p.waypoints[p.Index(i)]
}

// Index normalizes i into [0, Len()).
func (p *Path) Index(i int) int {
	n := len(p.waypoints)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Waypoints returns a copy of every waypoint in order.
func (p *Path) Waypoints() []Waypoint {
	if p == nil {
		return nil
	}
	out := make([]Waypoint, len(p.waypoints))
	copy(out, p.waypoints)
	return out
}
