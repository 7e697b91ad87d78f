package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"celltowers/internal/types"
)

// DBF attribute layout of the per-circle point layers. Field names are
// limited to 10 characters.
var towerFields = []shp.Field{
	shp.StringField("RADIO", 4),
	shp.NumberField("MCC", 4),
	shp.NumberField("MNC", 4),
	shp.NumberField("CID", 12),
	shp.StringField("OPERATOR", 40),
	shp.StringField("CIRCLE", 40),
}

// WriteShapefiles writes one point shapefile per circle into dir/shp and
// returns the .shp paths in circle order. Empty circles still get a layer
// so that the set of files is stable between runs.
func WriteShapefiles(dir string, circles []types.CircleTable) ([]string, error) {
	out := filepath.Join(dir, ShapefileDir)
	if err := ensureDir(out); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(circles))
	for _, c := range circles {
		path := filepath.Join(out, Slug(c.Circle)+".shp")
		if err := writeShapefile(path, c.Records); err != nil {
			return nil, fmt.Errorf("write shapefile %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeShapefile(path string, records []types.Record) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return err
	}
	if err := w.SetFields(towerFields); err != nil {
		w.Close()
		return err
	}
	if err := writePoints(w, records); err != nil {
		w.Close()
		return err
	}
	w.Close()

	// go-shp v0.1.1 names the table "<base>dbf"; its reader expects "<base>.dbf".
	base := strings.TrimSuffix(path, ".shp")
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writePoints(w *shp.Writer, records []types.Record) error {
	for _, r := range records {
		row := int(w.Write(&shp.Point{X: r.Lon, Y: r.Lat}))
		attrs := []interface{}{
			clip(r.Radio, 4),
			r.MCC,
			r.MNC,
			int(r.CID),
			clip(r.Operator, 40),
			clip(r.Circle, 40),
		}
		for field, v := range attrs {
			if err := w.WriteAttribute(row, field, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// clip truncates s to the DBF field width.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ShapefileRecord is one point read back from a layer.
type ShapefileRecord struct {
	Lon, Lat float64
	Attrs    map[string]string
}

// ReadShapefile loads every point of a layer written by WriteShapefiles.
func ReadShapefile(path string) ([]ShapefileRecord, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fields := r.Fields()
	var out []ShapefileRecord
	for r.Next() {
		idx, shape := r.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			continue
		}
		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f.String()] = strings.TrimRight(r.ReadAttribute(idx, i), "\x00 ")
		}
		out = append(out, ShapefileRecord{Lon: pt.X, Lat: pt.Y, Attrs: attrs})
	}
	return out, r.Err()
}
