package planning

import (
	"go.viam.com/trajectory/path"
	"go.viam.com/trajectory/spatialmath"
)

// Distance sums the straight-line segment lengths walking forward from index from to index to.
// Both indices are taken modulo the path length; when from is after to the walk wraps through the
// end of the path. Distance(p, a, a) is zero.
func Distance(p *path.Path, from, to int) (float64, error) {
	n := p.Len()
	if n == 0 {
		return 0, path.ErrEmptyPath
	}
	from, to = p.Index(from), p.Index(to)
	steps := to - from
	if steps < 0 {
		steps += n
	}

	var dist float64
	prev := p.At(from).Position
	for k := 1; k <= steps; k++ {
		next := p.At(from + k).Position
		dist += spatialmath.Distance(prev, next)
		prev = next
	}
	return dist, nil
}
