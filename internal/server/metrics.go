package server

import (
	"net/http"
	"strconv"

	"github.com/tidwall/polysplit/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricDescriptions = map[string]*prometheus.Desc{
		"requests":    prometheus.NewDesc("polysplit_requests_total", "Total number of split requests", nil, nil),
		"failed":      prometheus.NewDesc("polysplit_requests_failed_total", "Split requests that returned an error", nil, nil),
		"cache_hits":  prometheus.NewDesc("polysplit_cache_hits_total", "Split requests served from the result cache", nil, nil),
		"features":    prometheus.NewDesc("polysplit_features_total", "Features split", nil, nil),
		"parts":       prometheus.NewDesc("polysplit_parts_total", "Parts produced", nil, nil),
		"fallbacks":   prometheus.NewDesc("polysplit_fallbacks_total", "Oversized parts that could not be bisected", nil, nil),
		"in_flight":   prometheus.NewDesc("polysplit_requests_in_flight", "Split requests being processed", nil, nil),
		"cache_size":  prometheus.NewDesc("polysplit_cache_entries", "Entries in the result cache", nil, nil),
		"server_info": prometheus.NewDesc("polysplit_server_info", "Server info", []string{"version", "max_vertices"}, nil),
		"start_time":  prometheus.NewDesc("polysplit_start_time_seconds", "", nil, nil),
	}

	splitDurations = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "polysplit_split_duration_seconds",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
	}, []string{"status"},
	)
)

func (s *Server) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		collectors.NewBuildInfoCollector(),
		splitDurations,
		s,
	)

	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (s *Server) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range metricDescriptions {
		ch <- desc
	}
}

func (s *Server) Collect(ch chan<- prometheus.Metric) {
	counters := map[string]int64{
		"requests":   s.statsRequests.Load(),
		"failed":     s.statsFailed.Load(),
		"cache_hits": s.statsCacheHits.Load(),
		"features":   s.statsFeatures.Load(),
		"parts":      s.statsParts.Load(),
		"fallbacks":  s.statsFallbacks.Load(),
	}
	for metric, val := range counters {
		ch <- prometheus.MustNewConstMetric(
			metricDescriptions[metric], prometheus.CounterValue, float64(val))
	}

	ch <- prometheus.MustNewConstMetric(
		metricDescriptions["in_flight"],
		prometheus.GaugeValue, float64(s.statsInFlight.Load()))

	ch <- prometheus.MustNewConstMetric(
		metricDescriptions["cache_size"],
		prometheus.GaugeValue, float64(s.cache.len()))

	ch <- prometheus.MustNewConstMetric(
		metricDescriptions["server_info"],
		prometheus.GaugeValue, 1.0,
		core.Version, strconv.Itoa(s.config.MaxVertices))

	ch <- prometheus.MustNewConstMetric(
		metricDescriptions["start_time"],
		prometheus.GaugeValue, float64(s.started.Unix()))
}
