package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"celltowers/internal/types"
)

// Initial map view: the centre of India at country zoom.
const (
	MapCenterLat = 20.5937
	MapCenterLon = 78.9629
	MapZoom      = 5
)

// MapState describes the map view and the per-circle layers drawn on it.
type MapState struct {
	Center MapCenter  `json:"center"`
	Zoom   int        `json:"zoom"`
	Layers []MapLayer `json:"layers"`
}

// MapCenter is a WGS84 position.
type MapCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapLayer points to one circle's GeoJSON file.
type MapLayer struct {
	Circle string       `json:"circle"`
	Label  string       `json:"label"`
	File   string       `json:"file"`
	Towers int          `json:"towers"`
	BBox   geojson.BBox `json:"bbox,omitempty"`
}

// CircleFeatures converts a circle's records into a point
// FeatureCollection with a bounding box.
func CircleFeatures(c types.CircleTable) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	var bound orb.Bound
	for i, r := range c.Records {
		pt := orb.Point{r.Lon, r.Lat}
		if i == 0 {
			bound = pt.Bound()
		} else {
			bound = bound.Extend(pt)
		}
		f := geojson.NewFeature(pt)
		f.Properties["radio"] = r.Radio
		f.Properties["mcc"] = r.MCC
		f.Properties["mnc"] = r.MNC
		f.Properties["cid"] = r.CID
		f.Properties["operator"] = r.Operator
		f.Properties["circle"] = r.Circle
		fc.Append(f)
	}
	if len(c.Records) > 0 {
		fc.BBox = geojson.NewBBox(bound)
	}
	return fc
}

// WriteGeoJSON writes one FeatureCollection per circle into dir/geojson and
// the map state to dir/map_state.json. It returns the map state.
func WriteGeoJSON(dir string, circles []types.CircleTable) (MapState, error) {
	out := filepath.Join(dir, GeoJSONDir)
	if err := ensureDir(out); err != nil {
		return MapState{}, err
	}

	state := MapState{
		Center: MapCenter{Lat: MapCenterLat, Lon: MapCenterLon},
		Zoom:   MapZoom,
		Layers: make([]MapLayer, 0, len(circles)),
	}
	for _, c := range circles {
		fc := CircleFeatures(c)
		data, err := fc.MarshalJSON()
		if err != nil {
			return MapState{}, fmt.Errorf("encode %s: %w", c.Circle, err)
		}
		name := Slug(c.Circle) + ".geojson"
		if err := os.WriteFile(filepath.Join(out, name), data, 0o644); err != nil {
			return MapState{}, err
		}
		state.Layers = append(state.Layers, MapLayer{
			Circle: c.Circle,
			Label:  c.Label,
			File:   filepath.ToSlash(filepath.Join(GeoJSONDir, name)),
			Towers: len(c.Records),
			BBox:   fc.BBox,
		})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return MapState{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, MapStateFile), data, 0o644); err != nil {
		return MapState{}, err
	}
	return state, nil
}
