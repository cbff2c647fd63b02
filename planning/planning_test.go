package planning

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/trajectory/path"
	"go.viam.com/trajectory/spatialmath"
)

// fivePoints is the path x = 0..4, y = z = 0.
func fivePoints() *path.Path {
	points := make([]path.Waypoint, 5)
	for i := range points {
		points[i] = path.Waypoint{Position: r3.Vector{X: float64(i)}, Speed: 11}
	}
	return path.New(points)
}

func randomPath(rnd *rand.Rand, n int) *path.Path {
	points := make([]path.Waypoint, n)
	for i := range points {
		points[i] = path.Waypoint{Position: r3.Vector{
			X: float64(rnd.Intn(21) - 10),
			Y: float64(rnd.Intn(21) - 10),
			Z: float64(rnd.Intn(3)),
		}}
	}
	return path.New(points)
}

func TestLocate(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := Locate(path.New(nil), spatialmath.Pose{})
		test.That(t, errors.Is(err, path.ErrEmptyPath), test.ShouldBeTrue)
		_, err = Locate(nil, spatialmath.Pose{})
		test.That(t, errors.Is(err, path.ErrEmptyPath), test.ShouldBeTrue)
	})

	t.Run("nearest on a line", func(t *testing.T) {
		idx, err := Locate(fivePoints(), spatialmath.NewPose(r3.Vector{X: 1.9}, 0))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, idx, test.ShouldEqual, 2)
	})

	t.Run("exact match returns that index", func(t *testing.T) {
		p := fivePoints()
		for k := 0; k < p.Len(); k++ {
			idx, err := Locate(p, spatialmath.NewPose(p.At(k).Position, 1))
			test.That(t, err, test.ShouldBeNil)
			test.That(t, idx, test.ShouldEqual, k)
		}
	})

	t.Run("ties go to the lowest index", func(t *testing.T) {
		idx, err := Locate(fivePoints(), spatialmath.NewPose(r3.Vector{X: 2.5}, 0))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, idx, test.ShouldEqual, 2)

		dup := path.New([]path.Waypoint{
			{Position: r3.Vector{X: 5}},
			{Position: r3.Vector{X: 1}},
			{Position: r3.Vector{X: 1}},
		})
		idx, err = Locate(dup, spatialmath.NewPose(r3.Vector{X: 1}, 0))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, idx, test.ShouldEqual, 1)
	})

	t.Run("uses z", func(t *testing.T) {
		p := path.New([]path.Waypoint{
			{Position: r3.Vector{X: 0, Z: 10}},
			{Position: r3.Vector{X: 1, Z: 0}},
		})
		idx, err := Locate(p, spatialmath.NewPose(r3.Vector{}, 0))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, idx, test.ShouldEqual, 1)
	})

	t.Run("minimum and smallest index on random paths", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(7))
		for trial := 0; trial < 200; trial++ {
			p := randomPath(rnd, 1+rnd.Intn(30))
			pose := spatialmath.NewPose(r3.Vector{
				X: float64(rnd.Intn(21) - 10),
				Y: float64(rnd.Intn(21) - 10),
			}, 0)
			idx, err := Locate(p, pose)
			test.That(t, err, test.ShouldBeNil)
			best := spatialmath.Distance(pose.Point, p.At(idx).Position)
			for j := 0; j < p.Len(); j++ {
				d := spatialmath.Distance(pose.Point, p.At(j).Position)
				test.That(t, best, test.ShouldBeLessThanOrEqualTo, d)
				if j < idx {
					test.That(t, d, test.ShouldBeGreaterThan, best)
				}
			}
		}
	})
}

func TestLocateAhead(t *testing.T) {
	p := fivePoints()

	// Just past x=2 heading +X: x=2 is nearest but behind.
	idx, err := LocateAhead(p, spatialmath.NewPose(r3.Vector{X: 2.1}, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 3)

	// Heading -X the same waypoint is ahead.
	idx, err = LocateAhead(p, spatialmath.NewPose(r3.Vector{X: 2.1}, math.Pi))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 2)

	// Behind the last point wraps to the first.
	idx, err = LocateAhead(p, spatialmath.NewPose(r3.Vector{X: 4.2}, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 0)

	// On top of a waypoint keeps it.
	idx, err = LocateAhead(p, spatialmath.NewPose(r3.Vector{X: 3}, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 3)

	// The literal locator does not step forward.
	idx, err = LocatorFor(false)(p, spatialmath.NewPose(r3.Vector{X: 2.1}, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 2)
}

func TestBuild(t *testing.T) {
	p := fivePoints()

	t.Run("wraparound", func(t *testing.T) {
		window, err := Build(p, 3, 3)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, window, test.ShouldHaveLength, 3)
		test.That(t, window[0].Position.X, test.ShouldEqual, 3)
		test.That(t, window[1].Position.X, test.ShouldEqual, 4)
		test.That(t, window[2].Position.X, test.ShouldEqual, 0)
	})

	t.Run("entry k is path index start+k", func(t *testing.T) {
		for start := -7; start < 12; start++ {
			for count := 0; count < 13; count++ {
				window, err := Build(p, start, count)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, window, test.ShouldHaveLength, count)
				for k, wp := range window {
					test.That(t, wp, test.ShouldResemble, p.At(start+k))
				}
			}
		}
	})

	t.Run("longer than the path repeats points", func(t *testing.T) {
		window, err := Build(p, 0, 50)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, window, test.ShouldHaveLength, 50)
		counts := map[float64]int{}
		for _, wp := range window {
			counts[wp.Position.X]++
		}
		test.That(t, counts, test.ShouldHaveLength, 5)
		for _, c := range counts {
			test.That(t, c, test.ShouldEqual, 10)
		}
	})

	t.Run("copies are independent", func(t *testing.T) {
		window, err := Build(p, 0, 2)
		test.That(t, err, test.ShouldBeNil)
		window[0].Position.X = 99
		test.That(t, p.At(0).Position.X, test.ShouldEqual, 0)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Build(p, 0, -1)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = Build(path.New(nil), 0, 3)
		test.That(t, errors.Is(err, path.ErrEmptyPath), test.ShouldBeTrue)
	})
}

func TestDistance(t *testing.T) {
	p := fivePoints()

	d, err := Distance(p, 1, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, 2)

	// 3 -> 4 -> 0 -> 1: 1 + 4 + 1
	d, err = Distance(p, 3, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, 6)

	for a := 0; a < p.Len(); a++ {
		d, err = Distance(p, a, a)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldEqual, 0)
	}

	_, err = Distance(path.New(nil), 0, 1)
	test.That(t, errors.Is(err, path.ErrEmptyPath), test.ShouldBeTrue)
}

func TestDistanceIsMonotonic(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for trial := 0; trial < 50; trial++ {
		p := randomPath(rnd, 2+rnd.Intn(20))
		from := rnd.Intn(p.Len())
		prev := 0.0
		for k := 0; k < p.Len(); k++ {
			d, err := Distance(p, from, from+k)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, d, test.ShouldBeGreaterThanOrEqualTo, prev)
			prev = d
		}
	}
}
