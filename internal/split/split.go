// Package split subdivides polygons until every piece is under a vertex
// bound.
package split

import (
	"errors"

	"github.com/tidwall/geojson"
)

// ErrNoProgress is the fallback reason for an object whose bisections keep
// producing parts that are no smaller than itself, such as any rectangle
// under a bound below five.
var ErrNoProgress = errors.New("bisection does not reduce vertex count")

// maxStalls is how many bisections in a row may fail to reduce the vertex
// count before the object is kept whole.
const maxStalls = 1

// Stats reports on a single Split run.
type Stats struct {
	Fragments  int // objects returned
	Bisections int // successful bisections
	Fallbacks  int // oversized objects kept whole since they could not be bisected
}

// Splitter holds the settings for splitting objects.
type Splitter struct {
	MaxVertices int
	// OnFallback, when set, is called for every object that exceeds the bound
	// but could not be bisected.
	OnFallback func(obj geojson.Object, res Result)
}

// Split divides obj until each piece has at most MaxVertices vertices or
// can no longer be bisected. An object whose parts stop getting smaller
// after repeated bisection is kept whole as well, even though Bisect would
// still divide it, so with a MaxVertices below five some pieces can exceed
// the bound. Every rectangle has five vertices, which is where this shows. Pieces are returned in worklist order, which
// is not spatial order. A MaxVertices below one disables splitting and obj
// is returned whole.
func (s *Splitter) Split(obj geojson.Object) ([]geojson.Object, Stats) {
	max := s.MaxVertices
	if max < 1 {
		return []geojson.Object{obj}, Stats{Fragments: 1}
	}
	type item struct {
		geom   geojson.Object
		stalls int
	}
	var stats Stats
	var results []geojson.Object
	queue := []item{{geom: obj}}
	for len(queue) > 0 {
		it := queue[len(queue)-1]
		queue[len(queue)-1] = item{}
		queue = queue[:len(queue)-1]
		n := CountVertices(it.geom)
		if n <= max {
			results = append(results, it.geom)
			continue
		}
		res := Bisect(it.geom)
		stalls := 0
		if len(res.Parts) > 1 && !reduces(res.Parts, n) {
			stalls = it.stalls + 1
			if stalls > maxStalls {
				res = Result{
					Parts:   []geojson.Object{it.geom},
					Unsplit: true,
					Err:     ErrNoProgress,
				}
			}
		}
		if len(res.Parts) == 1 {
			stats.Fallbacks++
			if s.OnFallback != nil {
				s.OnFallback(it.geom, res)
			}
			results = append(results, it.geom)
			continue
		}
		stats.Bisections++
		for _, part := range res.Parts {
			queue = append(queue, item{geom: part, stalls: stalls})
		}
	}
	stats.Fragments = len(results)
	return results, stats
}

// reduces reports whether any part has fewer than n vertices.
func reduces(parts []geojson.Object, n int) bool {
	for _, part := range parts {
		if CountVertices(part) < n {
			return true
		}
	}
	return false
}

// Recursive splits obj until each piece has at most maxVertices vertices.
// Objects that are already small enough are returned as the only piece.
func Recursive(obj geojson.Object, maxVertices int) []geojson.Object {
	s := Splitter{MaxVertices: maxVertices}
	results, _ := s.Split(obj)
	return results
}
