package split

import (
	"github.com/tidwall/geojson"
	"github.com/tidwall/polysplit/internal/clip"
)

// Result is the outcome of a single bisection.
type Result struct {
	// Parts holds the pieces in order. It is never empty.
	Parts []geojson.Object
	// Unsplit is set when the object could not be divided. Parts then holds
	// the input object and Err the reason, if any.
	Unsplit bool
	Err     error
}

// CutLine returns the line through the middle of the object's bounding box,
// perpendicular to its longer side. Square boxes are cut vertically.
func CutLine(obj geojson.Object) clip.Line {
	rect := obj.Rect()
	dx := rect.Max.X - rect.Min.X
	dy := rect.Max.Y - rect.Min.Y
	if dx >= dy {
		return clip.VerticalLine((rect.Min.X+rect.Max.X)/2, rect.Min.Y, rect.Max.Y)
	}
	return clip.HorizontalLine((rect.Min.Y+rect.Max.Y)/2, rect.Min.X, rect.Max.X)
}

// Bisect cuts the object once along its CutLine. Failures never escape; the
// object comes back whole with Unsplit set.
func Bisect(obj geojson.Object) Result {
	if obj == nil || obj.Empty() {
		return Result{Parts: []geojson.Object{obj}, Unsplit: true, Err: clip.ErrEmpty}
	}
	out, err := clip.SplitByLine(obj, CutLine(obj))
	if err != nil {
		return Result{Parts: []geojson.Object{obj}, Unsplit: true, Err: err}
	}
	if multi, ok := out.(*geojson.MultiPolygon); ok {
		children := multi.Children()
		if len(children) > 1 {
			parts := make([]geojson.Object, len(children))
			copy(parts, children)
			return Result{Parts: parts}
		}
		if len(children) == 1 {
			out = children[0]
		}
	}
	return Result{Parts: []geojson.Object{out}, Unsplit: true}
}
