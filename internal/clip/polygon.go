package clip

import (
	"math"

	"github.com/tidwall/geojson/geometry"
)

// side maps the plane so that the kept half of a cut is always x <= cut.
// Every side is a rotation, so ring orientation survives the mapping.
type side struct {
	fwd, inv func(geometry.Point) geometry.Point
	cut      func(float64) float64
}

var (
	sideWest = side{
		fwd: func(p geometry.Point) geometry.Point { return p },
		inv: func(p geometry.Point) geometry.Point { return p },
		cut: func(c float64) float64 { return c },
	}
	sideEast = side{
		fwd: func(p geometry.Point) geometry.Point { return geometry.Point{X: neg(p.X), Y: neg(p.Y)} },
		inv: func(p geometry.Point) geometry.Point { return geometry.Point{X: neg(p.X), Y: neg(p.Y)} },
		cut: neg,
	}
	sideSouth = side{
		fwd: func(p geometry.Point) geometry.Point { return geometry.Point{X: p.Y, Y: neg(p.X)} },
		inv: func(p geometry.Point) geometry.Point { return geometry.Point{X: neg(p.Y), Y: p.X} },
		cut: func(c float64) float64 { return c },
	}
	sideNorth = side{
		fwd: func(p geometry.Point) geometry.Point { return geometry.Point{X: neg(p.Y), Y: p.X} },
		inv: func(p geometry.Point) geometry.Point { return geometry.Point{X: p.Y, Y: neg(p.X)} },
		cut: neg,
	}
)

// neg negates v without producing -0.
func neg(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}

// splitPoly returns the pieces of poly on both sides of the cut. Pieces on
// the low side (west or south) come first. A poly that the cut does not
// divide is returned unchanged as the only piece.
func splitPoly(poly *geometry.Poly, cut float64, vertical bool) []*geometry.Poly {
	if poly == nil || poly.Empty() {
		return nil
	}
	if !crosses(poly.Rect(), cut, vertical) {
		return []*geometry.Poly{poly}
	}
	exterior, holes := polyRings(poly)
	low, high := sideWest, sideEast
	if !vertical {
		low, high = sideSouth, sideNorth
	}
	var parts []*geometry.Poly
	for _, s := range []side{low, high} {
		for _, piece := range clipHalf(
			mapRing(exterior, s.fwd), mapRings(holes, s.fwd), s.cut(cut),
		) {
			parts = append(parts, makePoly(piece, s.inv))
		}
	}
	return parts
}

// polyRings returns the open rings of the poly, with the exterior oriented
// counter-clockwise and the holes clockwise.
func polyRings(poly *geometry.Poly) (exterior []geometry.Point, holes [][]geometry.Point) {
	exterior = openRing(poly.Exterior)
	if ringArea(exterior) < 0 {
		reverse(exterior)
	}
	for _, hole := range poly.Holes {
		points := openRing(hole)
		if len(points) < 3 {
			continue
		}
		if ringArea(points) > 0 {
			reverse(points)
		}
		holes = append(holes, points)
	}
	return exterior, holes
}

// openRing copies the ring's points without the closing point.
func openRing(ring geometry.Ring) []geometry.Point {
	points := make([]geometry.Point, ring.NumPoints())
	for i := 0; i < len(points); i++ {
		points[i] = ring.PointAt(i)
	}
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	return points
}

func mapRing(points []geometry.Point, fn func(geometry.Point) geometry.Point) []geometry.Point {
	mapped := make([]geometry.Point, len(points))
	for i, p := range points {
		mapped[i] = fn(p)
	}
	return mapped
}

func mapRings(rings [][]geometry.Point, fn func(geometry.Point) geometry.Point) [][]geometry.Point {
	mapped := make([][]geometry.Point, len(rings))
	for i, ring := range rings {
		mapped[i] = mapRing(ring, fn)
	}
	return mapped
}

// makePoly maps the piece back into place and closes every ring.
func makePoly(piece [][]geometry.Point, inv func(geometry.Point) geometry.Point) *geometry.Poly {
	exterior := closeRing(mapRing(piece[0], inv))
	var holes [][]geometry.Point
	for _, hole := range piece[1:] {
		holes = append(holes, closeRing(mapRing(hole, inv)))
	}
	return geometry.NewPoly(exterior, holes, nil)
}

func closeRing(points []geometry.Point) []geometry.Point {
	if len(points) > 0 && points[0] != points[len(points)-1] {
		points = append(points, points[0])
	}
	return points
}

func reverse(points []geometry.Point) {
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
}

// ringArea returns the signed area of an open or closed ring. Counter
// clockwise rings are positive.
func ringArea(points []geometry.Point) float64 {
	var sum float64
	for i := 0; i < len(points); i++ {
		a := points[i]
		b := points[(i+1)%len(points)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the area of a poly, exterior minus holes.
func Area(poly *geometry.Poly) float64 {
	if poly == nil {
		return 0
	}
	area := math.Abs(ringArea(openRing(poly.Exterior)))
	for _, hole := range poly.Holes {
		area -= math.Abs(ringArea(openRing(hole)))
	}
	return area
}
