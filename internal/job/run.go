package job

import (
	"context"
	"runtime"
	"sync"

	"github.com/tidwall/geojson"
	"github.com/tidwall/polysplit/core"
	"github.com/tidwall/polysplit/internal/config"
	"github.com/tidwall/polysplit/internal/log"
	"github.com/tidwall/polysplit/internal/rewind"
	"github.com/tidwall/polysplit/internal/split"
	"golang.org/x/sync/errgroup"
)

// Options control a Run.
type Options struct {
	MaxVertices int
	// Threads is the number of features split at once. Zero means one per
	// cpu.
	Threads int
	// LegacyWinding winds exteriors clockwise, against RFC 7946.
	LegacyWinding bool
	// Progress, when set, is called after each feature with the number of
	// features done so far. Calls never overlap.
	Progress func(done, total int)
}

// Stats totals the split stats of every feature in a Run.
type Stats struct {
	Features int
	split.Stats
}

func (s *Stats) add(o split.Stats) {
	s.Fragments += o.Fragments
	s.Bisections += o.Bisections
	s.Fallbacks += o.Fallbacks
}

// Run splits every feature and winds each resulting part. Parts are ordered
// by feature, then by the order the splitter produced them.
func Run(ctx context.Context, features []Feature, opts Options) ([]Part, Stats, error) {
	var stats Stats
	if err := config.ValidateMaxVertices(opts.MaxVertices); err != nil {
		return nil, stats, err
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	results := make([][]Part, len(features))
	var mu sync.Mutex
	var done int
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i := range features {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parts, fstats := splitFeature(features[i], opts)
			results[i] = parts
			mu.Lock()
			defer mu.Unlock()
			stats.add(fstats)
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(features))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	var all []Part
	for _, parts := range results {
		all = append(all, parts...)
	}
	stats.Features = len(features)
	return all, stats, nil
}

func splitFeature(f Feature, opts Options) ([]Part, split.Stats) {
	if f.Geometry == nil {
		return []Part{{Feature: f.Index, Seq: 1, raw: f.Raw}}, split.Stats{Fragments: 1}
	}
	s := split.Splitter{MaxVertices: opts.MaxVertices}
	if core.ShowDebugMessages {
		s.OnFallback = func(obj geojson.Object, res split.Result) {
			log.Debugf("feature %d: keeping %d vertices whole: %v",
				f.Index, split.CountVertices(obj), res.Err)
		}
	}
	geoms, stats := s.Split(f.Geometry)
	parts := make([]Part, len(geoms))
	for i, geom := range geoms {
		parts[i] = Part{
			Feature:  f.Index,
			Seq:      i + 1,
			Geometry: rewind.Rewind(geom, !opts.LegacyWinding),
			raw:      f.Raw,
		}
	}
	return parts, stats
}
