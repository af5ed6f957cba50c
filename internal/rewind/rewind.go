// Package rewind fixes the winding order of polygon rings.
package rewind

import (
	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
)

// Rewind returns a copy of obj with the rings of every polygon rewound.
//
// With rfc7946 set, exterior rings become counter-clockwise and holes
// clockwise, the right-hand rule of RFC 7946. Otherwise the opposite order
// is used. Objects without polygons are returned as is.
func Rewind(obj geojson.Object, rfc7946 bool) geojson.Object {
	switch obj := obj.(type) {
	case *geojson.Polygon:
		return geojson.NewPolygon(rewindPoly(obj.Base(), rfc7946))
	case *geojson.MultiPolygon:
		var polys []*geometry.Poly
		for _, child := range obj.Children() {
			if polygon, ok := child.(*geojson.Polygon); ok {
				polys = append(polys, rewindPoly(polygon.Base(), rfc7946))
			}
		}
		return geojson.NewMultiPolygon(polys)
	case *geojson.Feature:
		return geojson.NewFeature(Rewind(obj.Base(), rfc7946), obj.Members())
	case *geojson.FeatureCollection:
		return geojson.NewFeatureCollection(rewindAll(obj.Children(), rfc7946))
	case *geojson.GeometryCollection:
		return geojson.NewGeometryCollection(rewindAll(obj.Children(), rfc7946))
	}
	return obj
}

func rewindAll(children []geojson.Object, rfc7946 bool) []geojson.Object {
	out := make([]geojson.Object, len(children))
	for i, child := range children {
		out[i] = Rewind(child, rfc7946)
	}
	return out
}

func rewindPoly(poly *geometry.Poly, rfc7946 bool) *geometry.Poly {
	// rfc7946 exteriors are counter-clockwise
	exterior := windRing(poly.Exterior, !rfc7946)
	holes := make([][]geometry.Point, len(poly.Holes))
	for i, hole := range poly.Holes {
		holes[i] = windRing(hole, rfc7946)
	}
	return geometry.NewPoly(exterior, holes, nil)
}

// windRing copies the ring's points, reversing them when the ring's
// orientation does not match.
func windRing(ring geometry.Ring, clockwise bool) []geometry.Point {
	points := make([]geometry.Point, ring.NumPoints())
	for i := 0; i < len(points); i++ {
		points[i] = ring.PointAt(i)
	}
	if Clockwise(points) != clockwise {
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
	}
	return points
}

// Clockwise returns true when the ring winds clockwise. Rings without area
// are reported as counter-clockwise.
func Clockwise(points []geometry.Point) bool {
	var sum float64
	for i := 0; i < len(points); i++ {
		a := points[i]
		b := points[(i+1)%len(points)]
		sum += (b.X - a.X) * (b.Y + a.Y)
	}
	return sum > 0
}
