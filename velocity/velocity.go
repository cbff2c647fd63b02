// Package velocity assigns target speeds to the waypoints of a lookahead window.
package velocity

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/path"
	"go.viam.com/trajectory/planning"
)

// NoStop marks the absence of a stop constraint.
const NoStop = -1

// A Policy decides the speed of every waypoint in a window.
type Policy interface {
	Speeds(points []path.Waypoint) ([]float64, error)
}

// Assign returns a copy of points with each Speed replaced by the policy's value. The stored
// per-waypoint speed is ignored.
func Assign(points []path.Waypoint, policy Policy) ([]path.Waypoint, error) {
	speeds, err := policy.Speeds(points)
	if err != nil {
		return nil, err
	}
	if len(speeds) != len(points) {
		return nil, errors.Errorf("policy returned %d speeds for %d waypoints", len(speeds), len(points))
	}
	out := make([]path.Waypoint, len(points))
	for i, wp := range points {
		wp.Speed = speeds[i]
		out[i] = wp
	}
	return out, nil
}

// Cruise gives every waypoint the same speed.
type Cruise struct {
	Speed float64
}

// Speeds implements Policy.
func (c Cruise) Speeds(points []path.Waypoint) ([]float64, error) {
	speeds := make([]float64, len(points))
	for i := range speeds {
		speeds[i] = c.Speed
	}
	return speeds, nil
}

// StopRamp brings the vehicle to rest at window index StopOffset. Waypoints at and beyond the
// stop get zero; earlier waypoints get the speed from which MaxDeceleration stops the vehicle in
// the remaining along-window distance, capped at CruiseSpeed. Speeds never increase toward the
// stop.
type StopRamp struct {
	CruiseSpeed     float64
	MaxDeceleration float64
	StopOffset      int
}

// Speeds implements Policy.
func (s StopRamp) Speeds(points []path.Waypoint) ([]float64, error) {
	if s.StopOffset < 0 || s.StopOffset >= len(points) {
		return Cruise{Speed: s.CruiseSpeed}.Speeds(points)
	}
	if s.MaxDeceleration <= 0 {
		return nil, errors.Errorf("max deceleration must be positive, got %v", s.MaxDeceleration)
	}
	window := path.New(points)
	speeds := make([]float64, len(points))
	for i := 0; i < s.StopOffset; i++ {
		remaining, err := planning.Distance(window, i, s.StopOffset)
		if err != nil {
			return nil, err
		}
		speeds[i] = math.Min(s.CruiseSpeed, math.Sqrt(2*s.MaxDeceleration*remaining))
	}
	return speeds, nil
}

// PolicyFor returns a StopRamp when stopOffset names a window index and Cruise otherwise.
func PolicyFor(cruiseSpeed, maxDeceleration float64, stopOffset int) Policy {
	if stopOffset < 0 {
		return Cruise{Speed: cruiseSpeed}
	}
	return StopRamp{CruiseSpeed: cruiseSpeed, MaxDeceleration: maxDeceleration, StopOffset: stopOffset}
}
