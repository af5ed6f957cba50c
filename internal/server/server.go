package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/polysplit/core"
	"github.com/tidwall/polysplit/internal/archive"
	"github.com/tidwall/polysplit/internal/config"
	"github.com/tidwall/polysplit/internal/job"
	"github.com/tidwall/polysplit/internal/log"
	"github.com/tidwall/pretty"
	"go.uber.org/atomic"
)

const (
	formatZip     = "zip"
	formatGeoJSON = "geojson"
)

var errTooLarge = errors.New("upload too large")

// multipartSlack bounds the multipart framing allowed on top of the upload
// limit.
const multipartSlack = 64 * 1024

// Server splits uploaded GeoJSON documents over http.
type Server struct {
	config  *config.Config
	started time.Time
	cache   *resultCache

	statsRequests  atomic.Int64
	statsFailed    atomic.Int64
	statsCacheHits atomic.Int64
	statsFeatures  atomic.Int64
	statsParts     atomic.Int64
	statsFallbacks atomic.Int64
	statsInFlight  atomic.Int64
}

// New returns a server using the config.
func New(config *config.Config) *Server {
	return &Server{
		config:  config,
		started: time.Now(),
		cache:   newResultCache(config.CacheSize),
	}
}

// Handler returns the http routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.IndexHandler)
	mux.HandleFunc("/split", s.SplitHandler)
	mux.HandleFunc("/metrics", s.MetricsHandler)
	mux.HandleFunc("/server", s.StatsHandler)
	mux.HandleFunc("/healthz", s.HealthzHandler)
	return mux
}

// Serve starts a new polysplit server
func Serve(host string, port int, config *config.Config) error {
	log.Infof("Server started, polysplit version %s, git %s", core.Version, core.GitSHA)
	s := New(config)
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return err
	}
	log.Infof("Ready to accept connections at %s", ln.Addr())
	srv := &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: time.Minute,
	}
	return srv.Serve(ln)
}

// IndexHandler serves a tiny upload form.
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><head>
<title>polysplit %s</title></head>
<body><h1>GeoJSON polygon splitting</h1>
<form method="post" action="/split" enctype="multipart/form-data">
<p><input type="file" name="file" accept=".geojson,.json"></p>
<p>Max vertices per part
<input type="range" name="max_vertices" min="%d" max="%d" step="%d" value="%d"></p>
<p><button type="submit">Split &amp; Download</button></p>
</form>
<p><a href='/metrics'>Metrics</a> <a href='/server'>Stats</a></p>
</body></html>`, core.Version, core.SliderMin, core.SliderMax, core.SliderStep,
		s.config.MaxVertices)
}

// SplitHandler splits the uploaded document and returns a zip of the parts,
// or a single FeatureCollection when format=geojson.
func (s *Server) SplitHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.statsRequests.Inc()
	s.statsInFlight.Inc()
	defer s.statsInFlight.Dec()

	status, err := s.split(w, r)
	if err != nil {
		s.statsFailed.Inc()
		http.Error(w, err.Error(), status)
	}
	splitDurations.WithLabelValues(strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	log.HTTPf("%s %s %d %s", r.Method, r.URL.Path, status, time.Since(start))
}

func (s *Server) split(w http.ResponseWriter, r *http.Request) (int, error) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		return http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
	name, data, err := s.readUpload(w, r)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	maxVertices, err := s.maxVertices(param(r, "max_vertices"))
	if err != nil {
		return http.StatusBadRequest, err
	}
	format := strings.ToLower(param(r, "format"))
	switch format {
	case "":
		format = formatZip
	case formatZip, formatGeoJSON:
	default:
		return http.StatusBadRequest, fmt.Errorf("invalid format '%s'", format)
	}
	base := archive.BaseName(name)

	key := cacheKey(data, maxVertices, format, base)
	body, ok := s.cache.get(key)
	if ok {
		s.statsCacheHits.Inc()
	} else {
		body, err = s.render(r.Context(), data, base, maxVertices, format)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return http.StatusServiceUnavailable, err
			}
			return http.StatusBadRequest, err
		}
		s.cache.set(key, body)
	}
	if format == formatZip {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, archive.FileName(base)))
	} else {
		w.Header().Set("Content-Type", "application/geo+json")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
	return http.StatusOK, nil
}

func (s *Server) render(
	ctx context.Context, data []byte, base string, maxVertices int, format string,
) ([]byte, error) {
	features, err := job.Parse(data)
	if err != nil {
		return nil, err
	}
	opts := job.Options{
		MaxVertices:   maxVertices,
		Threads:       s.config.Threads,
		LegacyWinding: core.LegacyWinding,
	}
	if core.ShowDebugMessages {
		opts.Progress = func(done, total int) {
			log.Debugf("processing feature %d of %d", done, total)
		}
	}
	parts, stats, err := job.Run(ctx, features, opts)
	if err != nil {
		return nil, err
	}
	s.statsFeatures.Add(int64(stats.Features))
	s.statsParts.Add(int64(len(parts)))
	s.statsFallbacks.Add(int64(stats.Fallbacks))
	log.Infof("split %d features of %s into %d parts (max vertices %d)",
		stats.Features, base, len(parts), maxVertices)
	if format == formatGeoJSON {
		return pretty.Pretty([]byte(job.Collection(parts))), nil
	}
	var buf bytes.Buffer
	if err := archive.Write(&buf, base, parts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// param returns a request parameter from the query string or, for
// multipart uploads, from the form.
func param(r *http.Request, name string) string {
	if value := r.URL.Query().Get(name); value != "" {
		return value
	}
	if r.MultipartForm != nil {
		if values := r.MultipartForm.Value[name]; len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *Server) maxVertices(value string) (int, error) {
	if value == "" {
		return s.config.MaxVertices, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid max_vertices '%s'", value)
	}
	if err := config.ValidateMaxVertices(n); err != nil {
		return 0, err
	}
	if !config.SliderValue(n) {
		log.Debugf("max vertices %d is off the slider", n)
	}
	return n, nil
}

// readUpload returns the uploaded file name and contents. A multipart
// upload uses the "file" field, otherwise the request body is the document.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := s.config.MaxUpload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		// the form around the file may add a little to the body
		max := limit + multipartSlack
		if r.ContentLength > max {
			return "", nil, errTooLarge
		}
		r.Body = http.MaxBytesReader(w, r.Body, max)
		if err := r.ParseMultipartForm(limit); err != nil {
			if bodyTooLarge(err) {
				return "", nil, errTooLarge
			}
			return "", nil, err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, err
		}
		defer file.Close()
		if header.Size > limit {
			return "", nil, errTooLarge
		}
		data, err := ioutil.ReadAll(file)
		return header.Filename, data, err
	}
	data, err := ioutil.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return "", nil, err
	}
	if int64(len(data)) > limit {
		return "", nil, errTooLarge
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.geojson"
	}
	return name, data, nil
}

// bodyTooLarge reports whether err comes from a body cut off by
// http.MaxBytesReader, which has no exported error type before go 1.19.
func bodyTooLarge(err error) bool {
	return err != nil && strings.Contains(err.Error(), "request body too large")
}
