package split

import "github.com/tidwall/geojson"

// CountVertices returns the number of coordinates in a Polygon or
// MultiPolygon. Every ring counts its closing point, the same way the ring
// reports NumPoints. Empty objects and any other kind of object count zero.
func CountVertices(obj geojson.Object) int {
	if obj == nil || obj.Empty() {
		return 0
	}
	switch obj := obj.(type) {
	case *geojson.Polygon:
		base := obj.Base()
		n := base.Exterior.NumPoints()
		for _, hole := range base.Holes {
			n += hole.NumPoints()
		}
		return n
	case *geojson.MultiPolygon:
		var n int
		for _, child := range obj.Children() {
			n += CountVertices(child)
		}
		return n
	}
	return 0
}
