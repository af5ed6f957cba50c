package rewind

import (
	"testing"

	"github.com/tidwall/assert"
	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
)

func P(x, y float64) geometry.Point {
	return geometry.Point{X: x, Y: y}
}

var (
	cwSquare  = []geometry.Point{P(0, 0), P(0, 10), P(10, 10), P(10, 0), P(0, 0)}
	ccwSquare = []geometry.Point{P(0, 0), P(10, 0), P(10, 10), P(0, 10), P(0, 0)}
	ccwHole   = []geometry.Point{P(2, 2), P(4, 2), P(4, 4), P(2, 4), P(2, 2)}
)

func ringPoints(ring geometry.Ring) []geometry.Point {
	points := make([]geometry.Point, ring.NumPoints())
	for i := range points {
		points[i] = ring.PointAt(i)
	}
	return points
}

func TestClockwise(t *testing.T) {
	assert.Assert(Clockwise(cwSquare))
	assert.Assert(!Clockwise(ccwSquare))
	assert.Assert(!Clockwise([]geometry.Point{P(0, 0), P(1, 1), P(0, 0)}))
}

func TestRewindPolygon(t *testing.T) {
	in := geojson.NewPolygon(geometry.NewPoly(cwSquare, [][]geometry.Point{ccwHole}, nil))
	out := Rewind(in, true).(*geojson.Polygon)
	assert.Assert(!Clockwise(ringPoints(out.Base().Exterior)))
	assert.Assert(Clockwise(ringPoints(out.Base().Holes[0])))
	assert.Assert(out.Base().Exterior.NumPoints() == 5)
	// input is left alone
	assert.Assert(Clockwise(ringPoints(in.Base().Exterior)))

	legacy := Rewind(in, false).(*geojson.Polygon)
	assert.Assert(Clockwise(ringPoints(legacy.Base().Exterior)))
	assert.Assert(!Clockwise(ringPoints(legacy.Base().Holes[0])))
}

func TestRewindAlreadyWound(t *testing.T) {
	in := geojson.NewPolygon(geometry.NewPoly(ccwSquare, nil, nil))
	out := Rewind(in, true).(*geojson.Polygon)
	assert.Assert(out.JSON() == in.JSON())
}

func TestRewindMultiPolygon(t *testing.T) {
	in := geojson.NewMultiPolygon([]*geometry.Poly{
		geometry.NewPoly(cwSquare, nil, nil),
		geometry.NewPoly(ccwSquare, [][]geometry.Point{ccwHole}, nil),
	})
	out := Rewind(in, true).(*geojson.MultiPolygon)
	children := out.Children()
	assert.Assert(len(children) == 2)
	for _, child := range children {
		base := child.(*geojson.Polygon).Base()
		assert.Assert(!Clockwise(ringPoints(base.Exterior)))
		for _, hole := range base.Holes {
			assert.Assert(Clockwise(ringPoints(hole)))
		}
	}
}

func TestRewindCollections(t *testing.T) {
	poly := geojson.NewPolygon(geometry.NewPoly(cwSquare, nil, nil))
	feature := geojson.NewFeature(poly, `{"id":7}`)
	fc := geojson.NewFeatureCollection([]geojson.Object{feature})
	out := Rewind(fc, true).(*geojson.FeatureCollection)
	f := out.Children()[0].(*geojson.Feature)
	assert.Assert(f.Members() == feature.Members())
	base := f.Base().(*geojson.Polygon).Base()
	assert.Assert(!Clockwise(ringPoints(base.Exterior)))

	gc := geojson.NewGeometryCollection([]geojson.Object{poly})
	outgc := Rewind(gc, true).(*geojson.GeometryCollection)
	base = outgc.Children()[0].(*geojson.Polygon).Base()
	assert.Assert(!Clockwise(ringPoints(base.Exterior)))

	point := geojson.NewPoint(P(1, 1))
	assert.Assert(Rewind(point, true) == point)
}
