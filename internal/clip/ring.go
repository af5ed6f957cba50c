package clip

import (
	"github.com/tidwall/geojson/geometry"
	"github.com/tidwall/rtree"
)

// areaEpsilon is the smallest ring area kept after clipping.
const areaEpsilon = 1e-12

// chain is a run of ring points on the kept side of the cut. The first and
// last points lie on the cut.
type chain struct {
	points []geometry.Point
}

func (c *chain) entry() geometry.Point { return c.points[0] }
func (c *chain) exit() geometry.Point  { return c.points[len(c.points)-1] }

// clipHalf keeps the part of the poly with x <= cut. The exterior must be
// counter-clockwise and the holes clockwise so that the interior is always
// to the left of travel. The result is a list of pieces, each being an
// exterior ring followed by its holes.
func clipHalf(exterior []geometry.Point, holes [][]geometry.Point, cut float64) [][][]geometry.Point {
	var chains []*chain
	var exteriors [][]geometry.Point
	var free [][]geometry.Point
	for i, ring := range append([][]geometry.Point{exterior}, holes...) {
		ringChains, whole, inside := cutRing(ring, cut)
		if whole {
			if !inside {
				continue
			}
			if i == 0 {
				exteriors = append(exteriors, ring)
			} else {
				free = append(free, ring)
			}
			continue
		}
		chains = append(chains, ringChains...)
	}
	for _, ring := range stitch(chains) {
		area := ringArea(ring)
		switch {
		case area > areaEpsilon:
			exteriors = append(exteriors, ring)
		case area < -areaEpsilon:
			free = append(free, ring)
		}
	}
	return assignHoles(exteriors, free, cut)
}

// cutRing breaks the ring into chains on the kept side. When the ring does
// not cross the cut, whole is true and inside reports which side it is on.
//
// An edge running down the cut has the removed side on its left, so it
// ends a chain just like a crossing does. That opens holes which touch the
// cut from the kept side into the exterior.
func cutRing(ring []geometry.Point, cut float64) (chains []*chain, whole, inside bool) {
	n := len(ring)
	start, entered := -1, false
	for i, p := range ring {
		if p.X > cut {
			start = i
			break
		}
	}
	if start == -1 {
		for i := range ring {
			if downCut(ring[(i+n-1)%n], ring[i], cut) {
				start, entered = i, true
				break
			}
		}
	}
	if start == -1 {
		return nil, true, true
	}
	var current *chain
	if entered {
		current = &chain{points: []geometry.Point{ring[start]}}
	}
	end := func(exit geometry.Point) {
		if current.exit() != exit {
			current.points = append(current.points, exit)
		}
		current.points = trimCut(current.points, cut)
		if !onCut(current.points, cut) {
			chains = append(chains, current)
		}
		current = nil
	}
	for i := 0; i < n; i++ {
		a := ring[(start+i)%n]
		b := ring[(start+i+1)%n]
		aIn, bIn := a.X <= cut, b.X <= cut
		switch {
		case downCut(a, b, cut):
			end(a)
			if i < n-1 {
				current = &chain{points: []geometry.Point{b}}
			}
		case !aIn && bIn:
			entry := intersect(a, b, cut)
			current = &chain{points: []geometry.Point{entry}}
			if b != entry {
				current.points = append(current.points, b)
			}
		case aIn && bIn:
			current.points = append(current.points, b)
		case aIn && !bIn:
			end(intersect(a, b, cut))
		}
	}
	if len(chains) == 0 {
		// every kept point lies on the cut, or there are none
		return nil, true, false
	}
	return chains, false, false
}

// downCut returns true for an edge that lies on the cut and runs toward -y.
func downCut(a, b geometry.Point, cut float64) bool {
	return a.X == cut && b.X == cut && b.Y < a.Y
}

// trimCut drops the outer points of runs along the cut at either end of a
// chain, keeping the one next to the kept side. Stitching walks the cut
// line anyway, so the dropped points would only add collinear vertices or
// spikes.
func trimCut(points []geometry.Point, cut float64) []geometry.Point {
	for len(points) > 1 && points[0].X == cut && points[1].X == cut {
		points = points[1:]
	}
	for len(points) > 1 && points[len(points)-1].X == cut &&
		points[len(points)-2].X == cut {
		points = points[:len(points)-1]
	}
	return points
}

// intersect returns the point where segment a-b crosses x=cut. One of the
// two points is on each side of the cut.
func intersect(a, b geometry.Point, cut float64) geometry.Point {
	if a.X == cut {
		return a
	}
	if b.X == cut {
		return b
	}
	// order the endpoints so both halves compute the same point
	if a.X > b.X {
		a, b = b, a
	}
	t := (cut - a.X) / (b.X - a.X)
	return geometry.Point{X: cut, Y: a.Y + t*(b.Y-a.Y)}
}

// onCut returns true when all points lie on the cut line.
func onCut(points []geometry.Point, cut float64) bool {
	for _, p := range points {
		if p.X != cut {
			return false
		}
	}
	return true
}

// stitch joins chains into closed rings by walking up the cut line from
// each exit to the nearest entry above it.
func stitch(chains []*chain) [][]geometry.Point {
	used := make([]bool, len(chains))
	var rings [][]geometry.Point
	for first := range chains {
		if used[first] {
			continue
		}
		var ring []geometry.Point
		cur := first
		for {
			used[cur] = true
			ring = append(ring, chains[cur].points...)
			next := nextEntry(chains, used, first, chains[cur].exit().Y)
			if next == -1 || next == first {
				break
			}
			cur = next
		}
		rings = append(rings, dedupe(ring))
	}
	return rings
}

// nextEntry finds the unused chain, or the first chain of the ring being
// built, whose entry is nearest above y.
func nextEntry(chains []*chain, used []bool, first int, y float64) int {
	best := -1
	for i, c := range chains {
		if used[i] && i != first {
			continue
		}
		ey := c.entry().Y
		if ey < y {
			continue
		}
		if best == -1 || ey < chains[best].entry().Y ||
			(ey == chains[best].entry().Y && best == first) {
			best = i
		}
	}
	if best == -1 {
		return first
	}
	return best
}

// dedupe drops consecutive duplicate points, including a trailing point
// equal to the first.
func dedupe(points []geometry.Point) []geometry.Point {
	out := points[:0]
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// assignHoles places each free hole into the exterior that contains it.
// Holes that fall outside of every exterior are dropped.
func assignHoles(exteriors, free [][]geometry.Point, cut float64) [][][]geometry.Point {
	pieces := make([][][]geometry.Point, len(exteriors))
	var tr rtree.RTreeGN[float64, int]
	for i, ring := range exteriors {
		pieces[i] = [][]geometry.Point{ring}
		rect := pointsRect(ring)
		tr.Insert(
			[2]float64{rect.Min.X, rect.Min.Y},
			[2]float64{rect.Max.X, rect.Max.Y}, i)
	}
	for _, hole := range free {
		probe, ok := holeProbe(hole, cut)
		if !ok {
			continue
		}
		owner := -1
		tr.Search([2]float64{probe.X, probe.Y}, [2]float64{probe.X, probe.Y},
			func(min, max [2]float64, i int) bool {
				if ringContains(exteriors[i], probe) {
					owner = i
					return false
				}
				return true
			},
		)
		if owner != -1 {
			pieces[owner] = append(pieces[owner], hole)
		}
	}
	return pieces
}

// holeProbe returns a point on the hole boundary that is off the cut, so it
// never sits on a stitched exterior edge.
func holeProbe(hole []geometry.Point, cut float64) (geometry.Point, bool) {
	for i := 0; i < len(hole); i++ {
		a := hole[i]
		b := hole[(i+1)%len(hole)]
		mid := geometry.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
		if mid.X < cut {
			return mid, true
		}
	}
	return geometry.Point{}, false
}

func pointsRect(points []geometry.Point) geometry.Rect {
	var rect geometry.Rect
	for i, p := range points {
		if i == 0 {
			rect.Min, rect.Max = p, p
			continue
		}
		if p.X < rect.Min.X {
			rect.Min.X = p.X
		} else if p.X > rect.Max.X {
			rect.Max.X = p.X
		}
		if p.Y < rect.Min.Y {
			rect.Min.Y = p.Y
		} else if p.Y > rect.Max.Y {
			rect.Max.Y = p.Y
		}
	}
	return rect
}

// ringContains is an even-odd test of the point against an open ring.
func ringContains(ring []geometry.Point, p geometry.Point) bool {
	in := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}
