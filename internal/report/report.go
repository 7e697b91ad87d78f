// Package report renders pipeline results to files: CSV, Excel, PNG charts,
// shapefiles, GeoJSON and SQLite.
package report

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Output file names inside the output directory.
const (
	CorrectedCSV   = "towers_corrected.csv"
	WorkbookFile   = "towers.xlsx"
	OperatorsChart = "operators.png"
	CirclesChart   = "circles.png"
	ShapefileDir   = "shp"
	GeoJSONDir     = "geojson"
	MapStateFile   = "map_state.json"
	SQLiteFile     = "towers.db"
)

// Slug turns a circle name into a file-system friendly base name:
// "Delhi & NCR" becomes "delhi_ncr".
func Slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
