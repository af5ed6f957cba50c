package archive

import (
	"bytes"
	"context"
	"io/ioutil"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/tidwall/assert"
	"github.com/tidwall/gjson"
	"github.com/tidwall/polysplit/internal/job"
)

func TestBaseName(t *testing.T) {
	assert.Assert(BaseName("parcels.geojson") == "parcels")
	assert.Assert(BaseName("/data/in/parcels.json") == "parcels")
	assert.Assert(BaseName(`C:\maps\lakes.geojson`) == "lakes")
	assert.Assert(BaseName("noext") == "noext")
	assert.Assert(BaseName("") == "output")
	assert.Assert(FileName("parcels") == "parcels_split_parts.zip")
	assert.Assert(EntryName("parcels", 3) == "parcels_part3.geojson")
}

func TestWrite(t *testing.T) {
	features, err := job.Parse([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"n":1},"geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}},
		{"type":"Feature","properties":{"n":2},"geometry":{"type":"Polygon","coordinates":[[[9,9],[12,9],[12,12],[9,9]]]}}
	]}`))
	assert.Assert(err == nil)
	parts, _, err := job.Run(context.Background(), features, job.Options{MaxVertices: 256})
	assert.Assert(err == nil && len(parts) == 2)

	var buf bytes.Buffer
	assert.Assert(Write(&buf, "shapes", parts) == nil)
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.Assert(err == nil)
	assert.Assert(len(zr.File) == 2)
	for i, f := range zr.File {
		assert.Assert(f.Name == EntryName("shapes", i+1))
		rc, err := f.Open()
		assert.Assert(err == nil)
		data, err := ioutil.ReadAll(rc)
		rc.Close()
		assert.Assert(err == nil)
		json := string(data)
		assert.Assert(gjson.Valid(json))
		assert.Assert(gjson.Get(json, "type").String() == "FeatureCollection")
		assert.Assert(gjson.Get(json, "features.#").Int() == 1)
		assert.Assert(gjson.Get(json, "features.0.properties.n").Int() == int64(i+1))
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Assert(Write(&buf, "none", nil) == nil)
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.Assert(err == nil && len(zr.File) == 0)
}
