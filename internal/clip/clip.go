// Package clip partitions polygonal geojson objects by an axis-aligned line.
package clip

import (
	"errors"

	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
)

var (
	// ErrEmpty is returned when the object has nothing to split.
	ErrEmpty = errors.New("empty geometry")
	// ErrUnsupported is returned for objects that are not polygonal.
	ErrUnsupported = errors.New("unsupported geometry type")
	// ErrNotAxisAligned is returned when the line is neither vertical nor
	// horizontal.
	ErrNotAxisAligned = errors.New("line is not axis aligned")
	// ErrNoIntersection is returned when the line does not cross the
	// interior of the object's bounding box.
	ErrNoIntersection = errors.New("line does not intersect geometry")
	// ErrDegenerate is returned when splitting produced no area at all.
	ErrDegenerate = errors.New("degenerate geometry")
)

// Line is a two point segment used as a cut. The cut always extends across
// the whole object being split.
type Line struct {
	A, B geometry.Point
}

// VerticalLine returns the line x=x spanning from minY to maxY.
func VerticalLine(x, minY, maxY float64) Line {
	return Line{
		A: geometry.Point{X: x, Y: minY},
		B: geometry.Point{X: x, Y: maxY},
	}
}

// HorizontalLine returns the line y=y spanning from minX to maxX.
func HorizontalLine(y, minX, maxX float64) Line {
	return Line{
		A: geometry.Point{X: minX, Y: y},
		B: geometry.Point{X: maxX, Y: y},
	}
}

// Vertical returns true when the line runs along the y axis.
func (l Line) Vertical() bool {
	return l.A.X == l.B.X && l.A.Y != l.B.Y
}

// Horizontal returns true when the line runs along the x axis.
func (l Line) Horizontal() bool {
	return l.A.Y == l.B.Y && l.A.X != l.B.X
}

// SplitByLine partitions a Polygon or MultiPolygon along the line.
//
// A Polygon that the line divides becomes a MultiPolygon with one child per
// connected piece. A Polygon the line does not divide is returned as is.
// For a MultiPolygon each child is split and all resulting pieces are
// returned, in order, as a single MultiPolygon. Features are split by their
// base geometry.
func SplitByLine(obj geojson.Object, line Line) (geojson.Object, error) {
	if obj == nil || obj.Empty() {
		return nil, ErrEmpty
	}
	var cut float64
	var vertical bool
	switch {
	case line.A == line.B:
		return nil, ErrNoIntersection
	case line.Vertical():
		cut, vertical = line.A.X, true
	case line.Horizontal():
		cut = line.A.Y
	default:
		return nil, ErrNotAxisAligned
	}
	rect := obj.Rect()
	if !crosses(rect, cut, vertical) {
		return nil, ErrNoIntersection
	}
	switch obj := obj.(type) {
	case *geojson.Polygon:
		return splitPolygon(obj, cut, vertical)
	case *geojson.MultiPolygon:
		return splitMultiPolygon(obj, cut, vertical)
	case *geojson.Feature:
		return SplitByLine(obj.Base(), line)
	}
	return nil, ErrUnsupported
}

// crosses returns true when the cut lies strictly inside the rect.
func crosses(rect geometry.Rect, cut float64, vertical bool) bool {
	if vertical {
		return rect.Min.X < cut && cut < rect.Max.X
	}
	return rect.Min.Y < cut && cut < rect.Max.Y
}

func splitPolygon(
	polygon *geojson.Polygon, cut float64, vertical bool,
) (geojson.Object, error) {
	parts := splitPoly(polygon.Base(), cut, vertical)
	switch len(parts) {
	case 0:
		return nil, ErrDegenerate
	case 1:
		return geojson.NewPolygon(parts[0]), nil
	}
	return geojson.NewMultiPolygon(parts), nil
}

func splitMultiPolygon(
	multi *geojson.MultiPolygon, cut float64, vertical bool,
) (geojson.Object, error) {
	var parts []*geometry.Poly
	for _, child := range multi.Children() {
		polygon, ok := child.(*geojson.Polygon)
		if !ok || polygon.Empty() {
			continue
		}
		parts = append(parts, splitPoly(polygon.Base(), cut, vertical)...)
	}
	if len(parts) == 0 {
		return nil, ErrDegenerate
	}
	return geojson.NewMultiPolygon(parts), nil
}
