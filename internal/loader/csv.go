package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"celltowers/internal/logging"
	"celltowers/internal/types"
)

var (
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrMalformedValue is returned when a cell cannot be parsed as its column's type.
	ErrMalformedValue = errors.New("malformed value")
	// ErrEmptyFile is returned for inputs without a header row.
	ErrEmptyFile = errors.New("empty file")
)

// ParseError pinpoints a bad cell.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %s: %q: %v", e.Path, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Column names after normalizeHeaderToken.
const (
	colRadio       = "radio"
	colMCC         = "mcc"
	colMNC         = "mnc"
	colLAC         = "lac"
	colCID         = "cid"
	colLon         = "long"
	colLat         = "lat"
	colRange       = "range"
	colSample      = "sample"
	colChangeable  = "changeable"
	colChangeable0 = "changeable0"
	colChangeable1 = "changeable1"
	colAvgSignal   = "avgsignal"
	colCreated     = "created"
	colUpdated     = "updated"
	colOperator    = "operator"
	colCircle      = "circle"
)

// OpenCelliD and hand-exported files disagree on a few spellings.
var headerAliases = map[string]string{
	"lon":           colLon,
	"longitude":     colLon,
	"latitude":      colLat,
	"samples":       colSample,
	"averagesignal": colAvgSignal,
	"net":           colMNC,
	"area":          colLAC,
	"cell":          colCID,
}

func normalizeHeaderToken(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	token := b.String()
	if canon, ok := headerAliases[token]; ok {
		return canon
	}
	return token
}

// table is a decoded CSV file with a column index.
type table struct {
	path     string
	encoding string
	index    map[string]int
	rows     [][]string
	// line numbers of rows, 1-based, counting the header as line 1
	lines []int
}

func readTable(path string) (*table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTable(path, raw)
}

func parseTable(path string, raw []byte) (*table, error) {
	text, enc, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}

	t := &table{path: path, encoding: enc, index: make(map[string]int, len(header))}
	for i, h := range header {
		token := normalizeHeaderToken(h)
		if _, dup := t.index[token]; !dup {
			t.index[token] = i
		}
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		line, _ := r.FieldPos(0)
		t.rows = append(t.rows, rec)
		t.lines = append(t.lines, line)
	}
	return t, nil
}

func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w: %s", t.path, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// cell returns the trimmed value of col in row i; short rows read as "".
func (t *table) cell(i int, col string) string {
	idx, ok := t.index[col]
	if !ok || idx >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][idx])
}

func (t *table) parseErr(i int, col, value string, err error) error {
	return &ParseError{Path: t.path, Line: t.lines[i], Column: col, Value: value, Err: err}
}

// parseInt accepts integral floats ("405.0") as written by dataframe tools.
func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, ErrMalformedValue
	}
	return int64(f), nil
}

func (t *table) intCell(i int, col string, optional bool) (int64, error) {
	s := t.cell(i, col)
	if s == "" {
		if optional {
			return 0, nil
		}
		return 0, t.parseErr(i, col, s, ErrMalformedValue)
	}
	v, err := parseInt(s)
	if err != nil {
		return 0, t.parseErr(i, col, s, ErrMalformedValue)
	}
	return v, nil
}

func (t *table) floatCell(i int, col string) (float64, error) {
	s := t.cell(i, col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, t.parseErr(i, col, s, ErrMalformedValue)
	}
	return v, nil
}

// changeable resolves the flag from either the raw column or its one-hot
// encoding (changeable_0 = 1 means the flag is 0).
func (t *table) changeable(i int) (int, error) {
	if t.has(colChangeable) {
		v, err := t.intCell(i, colChangeable, false)
		if err != nil {
			return 0, err
		}
		if v != 0 && v != 1 {
			return 0, t.parseErr(i, colChangeable, t.cell(i, colChangeable), ErrMalformedValue)
		}
		return int(v), nil
	}
	if t.has(colChangeable0) {
		v, err := t.intCell(i, colChangeable0, false)
		if err != nil {
			return 0, err
		}
		if v == 1 {
			return 0, nil
		}
		return 1, nil
	}
	v, err := t.intCell(i, colChangeable1, false)
	if err != nil {
		return 0, err
	}
	if v == 1 {
		return 1, nil
	}
	return 0, nil
}

// LoadTowers reads a tower-records CSV.
func LoadTowers(ctx context.Context, path string) ([]types.TowerRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	towers, err := towersFromTable(t)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug(ctx, "loaded towers",
		logging.String("path", path),
		logging.String("encoding", t.encoding),
		logging.Int("rows", len(towers)),
	)
	return towers, nil
}

func towersFromTable(t *table) ([]types.TowerRecord, error) {
	if err := t.require(colRadio, colMCC, colMNC, colCID, colLon, colLat); err != nil {
		return nil, err
	}
	if !t.has(colChangeable) && !t.has(colChangeable0) && !t.has(colChangeable1) {
		return nil, fmt.Errorf("%s: %w: changeable (or changeable_0/changeable_1)", t.path, ErrMissingColumn)
	}

	towers := make([]types.TowerRecord, 0, len(t.rows))
	for i := range t.rows {
		var (
			rec types.TowerRecord
			err error
			v   int64
		)
		rec.Radio = t.cell(i, colRadio)
		if v, err = t.intCell(i, colMCC, false); err != nil {
			return nil, err
		}
		rec.MCC = int(v)
		if v, err = t.intCell(i, colMNC, false); err != nil {
			return nil, err
		}
		rec.MNC = int(v)
		if rec.LAC, err = t.intCell(i, colLAC, true); err != nil {
			return nil, err
		}
		if rec.CID, err = t.intCell(i, colCID, false); err != nil {
			return nil, err
		}
		if rec.Lon, err = t.floatCell(i, colLon); err != nil {
			return nil, err
		}
		if rec.Lat, err = t.floatCell(i, colLat); err != nil {
			return nil, err
		}
		if rec.Range, err = t.intCell(i, colRange, true); err != nil {
			return nil, err
		}
		if rec.Samples, err = t.intCell(i, colSample, true); err != nil {
			return nil, err
		}
		if rec.Changeable, err = t.changeable(i); err != nil {
			return nil, err
		}
		if rec.AverageSignal, err = t.intCell(i, colAvgSignal, true); err != nil {
			return nil, err
		}
		if rec.Created, err = t.intCell(i, colCreated, true); err != nil {
			return nil, err
		}
		if rec.Updated, err = t.intCell(i, colUpdated, true); err != nil {
			return nil, err
		}
		towers = append(towers, rec)
	}
	return towers, nil
}

// LoadOperators reads the MCC/MNC → operator/circle mapping CSV.
func LoadOperators(ctx context.Context, path string) ([]types.OperatorMapping, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	mappings, err := operatorsFromTable(t)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug(ctx, "loaded operator mappings",
		logging.String("path", path),
		logging.String("encoding", t.encoding),
		logging.Int("rows", len(mappings)),
	)
	return mappings, nil
}

func operatorsFromTable(t *table) ([]types.OperatorMapping, error) {
	if err := t.require(colMCC, colMNC, colOperator, colCircle); err != nil {
		return nil, err
	}
	mappings := make([]types.OperatorMapping, 0, len(t.rows))
	for i := range t.rows {
		mcc, err := t.intCell(i, colMCC, false)
		if err != nil {
			return nil, err
		}
		mnc, err := t.intCell(i, colMNC, false)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, types.OperatorMapping{
			MCC:      int(mcc),
			MNC:      int(mnc),
			Operator: t.cell(i, colOperator),
			Circle:   t.cell(i, colCircle),
		})
	}
	return mappings, nil
}
