package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/tidwall/polysplit/core"
)

var memStats runtime.MemStats
var memStatsMu sync.Mutex
var memStatsBG bool

// ReadMemStats returns the latest memstats. It provides an instant response.
func readMemStats() runtime.MemStats {
	memStatsMu.Lock()
	if !memStatsBG {
		runtime.ReadMemStats(&memStats)
		go func() {
			var ms runtime.MemStats
			for {
				runtime.ReadMemStats(&ms)
				memStatsMu.Lock()
				memStats = ms
				memStatsMu.Unlock()
				time.Sleep(time.Second / 5)
			}
		}()
		memStatsBG = true
	}
	ms := memStats
	memStatsMu.Unlock()
	return ms
}

// basicStats populates the passed map with process and split statistics
func (s *Server) basicStats(m map[string]interface{}) {
	m["pid"] = os.Getpid()
	m["version"] = core.Version
	m["uptime"] = time.Since(s.started).Round(time.Second).String()
	m["max_vertices"] = s.config.MaxVertices
	m["threads"] = s.config.Threads
	m["legacy_winding"] = core.LegacyWinding
	m["num_requests"] = s.statsRequests.Load()
	m["num_failed"] = s.statsFailed.Load()
	m["num_in_flight"] = s.statsInFlight.Load()
	m["num_cache_hits"] = s.statsCacheHits.Load()
	m["num_cache_entries"] = s.cache.len()
	m["num_features"] = s.statsFeatures.Load()
	m["num_parts"] = s.statsParts.Load()
	m["num_fallbacks"] = s.statsFallbacks.Load()
	mem := readMemStats()
	m["mem_alloc"] = mem.Alloc
	m["heap_size"] = mem.HeapAlloc
	m["heap_released"] = mem.HeapReleased
	m["max_upload"] = s.config.MaxUpload
	m["cpus"] = runtime.NumCPU()
	m["goroutines"] = runtime.NumGoroutine()
}

// StatsHandler writes the server stats as json.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	m := make(map[string]interface{})
	s.basicStats(m)
	data, err := json.Marshal(m)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true,"stats":` + string(data) +
		`,"elapsed":"` + time.Since(start).String() + "\"}"))
}

// HealthzHandler reports that the server is accepting requests.
func (s *Server) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true,"elapsed":"` + time.Since(start).String() + "\"}"))
}
