package planning

import (
	"github.com/pkg/errors"

	"go.viam.com/trajectory/path"
)

// Build returns count waypoint copies starting at start, wrapping past the end of the path. Entry
// k is p.At(start+k). When count exceeds the path length the same waypoints repeat in order.
func Build(p *path.Path, start, count int) ([]path.Waypoint, error) {
	if count < 0 {
		return nil, errors.Errorf("lookahead count must be non-negative, got %d", count)
	}
	if p.Len() == 0 {
		return nil, path.ErrEmptyPath
	}
	window := make([]path.Waypoint, count)
	for k := range window {
		window[k] = p.At(start + k)
	}
	return window, nil
}
