package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"celltowers/internal/types"
)

// WriteCSV writes records with the corrected-table header. Output is
// byte-identical for identical input.
func WriteCSV(w io.Writer, records []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Columns); err != nil {
		return err
	}
	row := make([]string, len(types.Columns))
	for _, r := range records {
		row[0] = r.Radio
		row[1] = strconv.Itoa(r.MCC)
		row[2] = strconv.Itoa(r.MNC)
		row[3] = strconv.FormatInt(r.CID, 10)
		row[4] = formatCoord(r.Lon)
		row[5] = formatCoord(r.Lat)
		row[6] = r.Operator
		row[7] = r.Circle
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the corrected table to dir/towers_corrected.csv and
// returns the file path.
func WriteCSVFile(dir string, records []types.Record) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, CorrectedCSV)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
