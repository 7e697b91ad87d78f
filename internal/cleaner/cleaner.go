package cleaner

import (
	"sync"

	"celltowers/internal/types"
)

// Stats counts rows through each cleaning step.
type Stats struct {
	Input       int // tower rows read
	Joined      int // rows after the join (duplicate mapping keys fan out)
	Inferred    int // dropped: changeable != 0
	Unmatched   int // dropped: no operator
	Defunct     int // dropped: operator no longer in service
	OutOfCircle int // dropped: circle not in the trimmed list
	Trimmed     int // dropped: outside the circle's quantile band
	Output      int // rows in the corrected table
}

// Result is the output of Clean.
type Result struct {
	// Corrected is the concatenation of Circles' records in circle order.
	Corrected []types.Record
	// Circles holds every configured circle, including empty ones, in
	// output order.
	Circles []types.CircleTable
	// Normalized holds the filtered, canonicalized rows before the circle
	// trim, including rows of unlisted circles.
	Normalized []types.Record
	Stats      Stats
}

// Circle looks a partition up by canonical name or display label.
func (r Result) Circle(name string) (types.CircleTable, bool) {
	for _, c := range r.Circles {
		if c.Circle == name || c.Label == name {
			return c, true
		}
	}
	return types.CircleTable{}, false
}

// CircleNames returns the canonical circle names in output order.
func (r Result) CircleNames() []string {
	names := make([]string, len(r.Circles))
	for i, c := range r.Circles {
		names[i] = c.Circle
	}
	return names
}

// Clean runs the full cleaning pipeline. Neither input slice is modified.
func Clean(towers []types.TowerRecord, mappings []types.OperatorMapping) Result {
	joined := Join(RemapRadios(towers), mappings)
	records, stats := Normalize(joined)
	stats.Input = len(towers)
	stats.Joined = len(joined)

	circles, outOfCircle := Trim(records)
	stats.OutOfCircle = outOfCircle

	corrected := make([]types.Record, 0, len(records)-outOfCircle)
	for _, c := range circles {
		corrected = append(corrected, c.Records...)
	}
	stats.Output = len(corrected)
	stats.Trimmed = len(records) - outOfCircle - len(corrected)

	return Result{Corrected: corrected, Circles: circles, Normalized: records, Stats: stats}
}

// RemapRadios returns a copy of towers with radio technologies replaced by
// generation labels.
func RemapRadios(towers []types.TowerRecord) []types.TowerRecord {
	out := make([]types.TowerRecord, len(towers))
	for i, t := range towers {
		t.Radio = RemapRadio(t.Radio)
		out[i] = t
	}
	return out
}

// Join left-joins towers to mappings on (mcc, mnc). Unmatched towers are
// kept with Matched=false. A key mapped more than once yields one row per
// mapping, in mapping order.
func Join(towers []types.TowerRecord, mappings []types.OperatorMapping) []types.JoinedRecord {
	byKey := make(map[types.NetworkKey][]types.OperatorMapping, len(mappings))
	for _, m := range mappings {
		byKey[m.Key()] = append(byKey[m.Key()], m)
	}

	out := make([]types.JoinedRecord, 0, len(towers))
	for _, t := range towers {
		matches := byKey[t.Key()]
		if len(matches) == 0 {
			out = append(out, types.JoinedRecord{TowerRecord: t})
			continue
		}
		for _, m := range matches {
			out = append(out, types.JoinedRecord{
				TowerRecord: t,
				Operator:    m.Operator,
				Circle:      m.Circle,
				Matched:     true,
			})
		}
	}
	return out
}

// Normalize applies the row-level rules to joined rows: keep confirmed
// locations, drop rows without an operator, canonicalize operator names,
// drop defunct operators, correct Jio generations and canonicalize circle
// names. Pruned columns disappear in the projection to types.Record.
func Normalize(joined []types.JoinedRecord) ([]types.Record, Stats) {
	var stats Stats
	out := make([]types.Record, 0, len(joined))
	for _, j := range joined {
		if j.Changeable != 0 {
			stats.Inferred++
			continue
		}
		if !j.Matched || j.Operator == "" {
			stats.Unmatched++
			continue
		}
		op := CanonicalOperator(j.Operator)
		if IsDefunct(op) {
			stats.Defunct++
			continue
		}
		out = append(out, types.Record{
			Radio:    correctJio(op, j.Radio),
			MCC:      j.MCC,
			MNC:      j.MNC,
			CID:      j.CID,
			Lon:      j.Lon,
			Lat:      j.Lat,
			Operator: op,
			Circle:   CanonicalCircle(j.Circle),
		})
	}
	return out, stats
}

// Trim partitions records by circle and keeps, per configured circle, the
// rows whose latitude and longitude both fall inside that circle's quantile
// bands. Bands are computed over the untrimmed circle partition. Circles
// are trimmed concurrently; the result order is fixed by the circle list.
// The second return value counts records whose circle is not configured.
func Trim(records []types.Record) ([]types.CircleTable, int) {
	slot := make(map[string]int, len(circleSpecs))
	for i, s := range circleSpecs {
		slot[s.Circle] = i
	}
	parts := make([][]types.Record, len(circleSpecs))
	outOfCircle := 0
	for _, r := range records {
		i, ok := slot[r.Circle]
		if !ok {
			outOfCircle++
			continue
		}
		parts[i] = append(parts[i], r)
	}

	tables := make([]types.CircleTable, len(circleSpecs))
	var wg sync.WaitGroup
	wg.Add(len(circleSpecs))
	for i, spec := range circleSpecs {
		go func(i int, spec CircleSpec) {
			defer wg.Done()
			tables[i] = trimCircle(spec, parts[i])
		}(i, spec)
	}
	wg.Wait()
	return tables, outOfCircle
}

func trimCircle(spec CircleSpec, rows []types.Record) types.CircleTable {
	table := types.CircleTable{Circle: spec.Circle, Label: spec.Label, Records: []types.Record{}}
	if len(rows) == 0 {
		return table
	}

	lats := make([]float64, len(rows))
	lons := make([]float64, len(rows))
	for i, r := range rows {
		lats[i], lons[i] = r.Lat, r.Lon
	}
	table.LatBand, _ = band(lats, spec.Lower, spec.Upper)
	table.LonBand, _ = band(lons, spec.Lower, spec.Upper)

	for _, r := range rows {
		if table.LatBand.Contains(r.Lat) && table.LonBand.Contains(r.Lon) {
			table.Records = append(table.Records, r)
		}
	}
	return table
}
