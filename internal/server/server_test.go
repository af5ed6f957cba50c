package server

import (
	"bytes"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/tidwall/assert"
	"github.com/tidwall/gjson"
	"github.com/tidwall/polysplit/internal/config"
)

const squareDoc = `{"type":"FeatureCollection","features":[` +
	`{"type":"Feature","properties":{"name":"sq"},"geometry":` +
	`{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}]}`

// an L shape cut at x=5 into two rectangles
const lDoc = `{"type":"Feature","properties":{"name":"ell"},"geometry":` +
	`{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,5],[5,5],[5,10],[0,10],[0,0]]]}}`

func testServer() (*Server, http.Handler) {
	s := New(config.Default())
	return s, s.Handler()
}

func do(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestSplitGeoJSON(t *testing.T) {
	s, h := testServer()
	r := httptest.NewRequest("POST", "/split?format=geojson&max_vertices=6", strings.NewReader(lDoc))
	w := do(h, r)
	assert.Assert(w.Code == 200)
	assert.Assert(w.Header().Get("Content-Type") == "application/geo+json")
	body := w.Body.String()
	assert.Assert(gjson.Valid(body))
	assert.Assert(gjson.Get(body, "features.#").Int() == 2)
	assert.Assert(gjson.Get(body, "features.0.properties.name").String() == "ell")
	assert.Assert(gjson.Get(body, "features.1.geometry.coordinates.0.#").Int() == 5)
	assert.Assert(s.statsParts.Load() == 2)
	assert.Assert(s.statsRequests.Load() == 1)
	assert.Assert(s.statsFeatures.Load() == 1)
}

func TestSplitZip(t *testing.T) {
	_, h := testServer()
	r := httptest.NewRequest("POST", "/split?name=parcels.geojson", strings.NewReader(squareDoc))
	w := do(h, r)
	assert.Assert(w.Code == 200)
	assert.Assert(w.Header().Get("Content-Type") == "application/zip")
	assert.Assert(strings.Contains(w.Header().Get("Content-Disposition"), "parcels_split_parts.zip"))
	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	assert.Assert(err == nil)
	assert.Assert(len(zr.File) == 1)
	assert.Assert(zr.File[0].Name == "parcels_part1.geojson")
	rc, err := zr.File[0].Open()
	assert.Assert(err == nil)
	data, err := ioutil.ReadAll(rc)
	rc.Close()
	assert.Assert(err == nil)
	assert.Assert(gjson.GetBytes(data, "type").String() == "FeatureCollection")
}

func multipartRequest(file []byte, fields ...string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i+1 < len(fields); i += 2 {
		mw.WriteField(fields[i], fields[i+1])
	}
	fw, _ := mw.CreateFormFile("file", "square.geojson")
	fw.Write(file)
	mw.Close()
	r := httptest.NewRequest("POST", "/split", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestSplitMultipart(t *testing.T) {
	_, h := testServer()
	r := multipartRequest([]byte(squareDoc), "max_vertices", "100", "format", "geojson")
	w := do(h, r)
	assert.Assert(w.Code == 200)
	assert.Assert(gjson.Get(w.Body.String(), "features.#").Int() == 1)
}

func TestSplitErrors(t *testing.T) {
	s, h := testServer()
	w := do(h, httptest.NewRequest("GET", "/split", nil))
	assert.Assert(w.Code == 405)

	w = do(h, httptest.NewRequest("POST", "/split?max_vertices=0", strings.NewReader(squareDoc)))
	assert.Assert(w.Code == 400)
	w = do(h, httptest.NewRequest("POST", "/split?max_vertices=abc", strings.NewReader(squareDoc)))
	assert.Assert(w.Code == 400)
	w = do(h, httptest.NewRequest("POST", "/split?format=kml", strings.NewReader(squareDoc)))
	assert.Assert(w.Code == 400)
	w = do(h, httptest.NewRequest("POST", "/split", strings.NewReader(`{"type":`)))
	assert.Assert(w.Code == 400)

	s.config.MaxUpload = 16
	w = do(h, httptest.NewRequest("POST", "/split", strings.NewReader(squareDoc)))
	assert.Assert(w.Code == 413)
	assert.Assert(s.statsFailed.Load() == 6)
}

func TestSplitMultipartTooLarge(t *testing.T) {
	s, h := testServer()
	s.config.MaxUpload = 16

	// over the limit but within the form slack
	w := do(h, multipartRequest([]byte(squareDoc)))
	assert.Assert(w.Code == 413)

	big := bytes.Repeat([]byte(" "), 2*multipartSlack)
	w = do(h, multipartRequest(big))
	assert.Assert(w.Code == 413)

	// unknown length, cut off while reading the body
	r := multipartRequest(big)
	r.ContentLength = -1
	w = do(h, r)
	assert.Assert(w.Code == 413)
	assert.Assert(s.statsFailed.Load() == 3)
}

func TestSplitCache(t *testing.T) {
	s, h := testServer()
	for i := 0; i < 3; i++ {
		w := do(h, httptest.NewRequest("POST", "/split?format=geojson", strings.NewReader(squareDoc)))
		assert.Assert(w.Code == 200)
	}
	assert.Assert(s.statsCacheHits.Load() == 2)
	assert.Assert(s.statsFeatures.Load() == 1)
	assert.Assert(s.cache.len() == 1)

	s.cache = newResultCache(0)
	do(h, httptest.NewRequest("POST", "/split?format=geojson", strings.NewReader(squareDoc)))
	assert.Assert(s.statsCacheHits.Load() == 2)
	assert.Assert(s.cache.len() == 0)
}

func TestCacheKey(t *testing.T) {
	data := []byte(squareDoc)
	assert.Assert(cacheKey(data, 10, "zip", "a") == cacheKey(data, 10, "zip", "a"))
	assert.Assert(cacheKey(data, 10, "zip", "a") != cacheKey(data, 11, "zip", "a"))
	assert.Assert(cacheKey(data, 10, "zip", "a") != cacheKey(data, 10, "geojson", "a"))
	assert.Assert(cacheKey(data, 10, "zip", "a") != cacheKey(data, 10, "zip", "b"))
}

func TestIndexAndMetrics(t *testing.T) {
	_, h := testServer()
	w := do(h, httptest.NewRequest("GET", "/", nil))
	assert.Assert(w.Code == 200)
	assert.Assert(strings.Contains(w.Body.String(), `name="max_vertices"`))
	w = do(h, httptest.NewRequest("GET", "/nope", nil))
	assert.Assert(w.Code == 404)

	do(h, httptest.NewRequest("POST", "/split", strings.NewReader(squareDoc)))
	w = do(h, httptest.NewRequest("GET", "/metrics", nil))
	assert.Assert(w.Code == 200)
	body := w.Body.String()
	assert.Assert(strings.Contains(body, "polysplit_requests_total 1"))
	assert.Assert(strings.Contains(body, "polysplit_split_duration_seconds"))
}

func TestStats(t *testing.T) {
	_, h := testServer()
	do(h, httptest.NewRequest("POST", "/split?format=geojson&max_vertices=6", strings.NewReader(lDoc)))
	w := do(h, httptest.NewRequest("GET", "/server", nil))
	assert.Assert(w.Code == 200)
	body := w.Body.String()
	assert.Assert(gjson.Get(body, "ok").Bool())
	assert.Assert(gjson.Get(body, "stats.num_requests").Int() == 1)
	assert.Assert(gjson.Get(body, "stats.num_parts").Int() == 2)
	assert.Assert(gjson.Get(body, "stats.max_vertices").Int() == 256)

	w = do(h, httptest.NewRequest("GET", "/healthz", nil))
	assert.Assert(w.Code == 200)
	assert.Assert(gjson.Get(w.Body.String(), "ok").Bool())
}
