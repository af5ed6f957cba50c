// Package job turns GeoJSON documents into winding corrected polygon parts.
package job

import (
	"errors"
	"fmt"

	"github.com/tidwall/geojson"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	// ErrInvalidJSON is returned when the document is not json.
	ErrInvalidJSON = errors.New("invalid json")
	// ErrInvalidType is returned for documents that are neither features
	// nor geometries.
	ErrInvalidType = errors.New("invalid geojson type")
)

// Feature is one feature of an input document.
type Feature struct {
	Index int
	// Raw is the feature json. Its geometry member is replaced for each part.
	Raw string
	// Geometry is nil for features without a geometry.
	Geometry geojson.Object
}

// Parse reads a FeatureCollection, a single Feature or a bare geometry.
func Parse(data []byte) ([]Feature, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	json := string(data)
	switch typ := gjson.Get(json, "type").String(); typ {
	case "FeatureCollection":
		var features []Feature
		var err error
		gjson.Get(json, "features").ForEach(func(_, value gjson.Result) bool {
			var f Feature
			f, err = parseFeature(len(features), value.Raw)
			if err != nil {
				return false
			}
			features = append(features, f)
			return true
		})
		if err != nil {
			return nil, err
		}
		return features, nil
	case "Feature":
		f, err := parseFeature(0, json)
		if err != nil {
			return nil, err
		}
		return []Feature{f}, nil
	case "Point", "MultiPoint", "LineString", "MultiLineString",
		"Polygon", "MultiPolygon", "GeometryCollection":
		raw, _ := sjson.SetRaw(`{"type":"Feature","properties":{}}`, "geometry", json)
		f, err := parseFeature(0, raw)
		if err != nil {
			return nil, err
		}
		return []Feature{f}, nil
	default:
		return nil, fmt.Errorf("%w '%s'", ErrInvalidType, typ)
	}
}

func parseFeature(index int, raw string) (Feature, error) {
	f := Feature{Index: index, Raw: raw}
	if typ := gjson.Get(raw, "type").String(); typ != "Feature" {
		return f, fmt.Errorf("feature %d: %w '%s'", index, ErrInvalidType, typ)
	}
	geom := gjson.Get(raw, "geometry")
	if !geom.Exists() || geom.Type == gjson.Null {
		return f, nil
	}
	obj, err := geojson.Parse(geom.Raw, geojson.DefaultParseOptions)
	if err != nil {
		return f, fmt.Errorf("feature %d: %w", index, err)
	}
	f.Geometry = obj
	return f, nil
}

// Part is one output fragment of a feature.
type Part struct {
	// Feature is the index of the source feature.
	Feature int
	// Seq numbers the fragments of a feature, starting at one.
	Seq      int
	Geometry geojson.Object

	raw string
}

// FeatureJSON returns the source feature with its geometry replaced by the
// fragment. All other members, such as id and properties, are kept.
func (p Part) FeatureJSON() string {
	json := p.raw
	if json == "" {
		json = `{"type":"Feature"}`
	}
	if !gjson.Get(json, "properties").Exists() {
		json, _ = sjson.SetRaw(json, "properties", "{}")
	}
	geom := "null"
	if p.Geometry != nil {
		geom = p.Geometry.JSON()
	}
	json, _ = sjson.SetRaw(json, "geometry", geom)
	return json
}

// JSON returns a FeatureCollection holding just this part.
func (p Part) JSON() string {
	return Collection([]Part{p})
}

// Collection returns a FeatureCollection of all parts, in order.
func Collection(parts []Part) string {
	b := []byte(`{"type":"FeatureCollection","features":[`)
	for i, p := range parts {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, p.FeatureJSON()...)
	}
	b = append(b, ']', '}')
	return string(b)
}
