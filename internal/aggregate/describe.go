package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"celltowers/internal/cleaner"
	"celltowers/internal/types"
)

// DescribePercentiles are the quantiles reported by Describe.
var DescribePercentiles = []float64{.01, .05, .10, .25, .50, .90, .95, .99}

// Percentile is one quantile of a column.
type Percentile struct {
	Q     float64
	Value float64
}

// Summary describes one numeric column. Statistics are NaN when Count is 0;
// Std is NaN when Count is 1.
type Summary struct {
	Column      string
	Count       int
	Mean        float64
	Std         float64
	Min         float64
	Percentiles []Percentile
	Max         float64
}

var towerColumns = []struct {
	name string
	get  func(types.TowerRecord) float64
}{
	{"mcc", func(t types.TowerRecord) float64 { return float64(t.MCC) }},
	{"mnc", func(t types.TowerRecord) float64 { return float64(t.MNC) }},
	{"lac", func(t types.TowerRecord) float64 { return float64(t.LAC) }},
	{"cid", func(t types.TowerRecord) float64 { return float64(t.CID) }},
	{"long", func(t types.TowerRecord) float64 { return t.Lon }},
	{"lat", func(t types.TowerRecord) float64 { return t.Lat }},
	{"range", func(t types.TowerRecord) float64 { return float64(t.Range) }},
	{"sample", func(t types.TowerRecord) float64 { return float64(t.Samples) }},
	{"changeable", func(t types.TowerRecord) float64 { return float64(t.Changeable) }},
	{"avgsignal", func(t types.TowerRecord) float64 { return float64(t.AverageSignal) }},
	{"created", func(t types.TowerRecord) float64 { return float64(t.Created) }},
	{"updated", func(t types.TowerRecord) float64 { return float64(t.Updated) }},
}

// Describe summarizes every numeric column of the raw tower table.
func Describe(towers []types.TowerRecord) []Summary {
	out := make([]Summary, 0, len(towerColumns))
	vals := make([]float64, len(towers))
	for _, col := range towerColumns {
		for i, t := range towers {
			vals[i] = col.get(t)
		}
		out = append(out, DescribeColumn(col.name, vals))
	}
	return out
}

// DescribeColumn summarizes vals without modifying it.
func DescribeColumn(name string, vals []float64) Summary {
	s := Summary{Column: name, Count: len(vals)}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Max = nan, nan, nan, nan
		for _, q := range DescribePercentiles {
			s.Percentiles = append(s.Percentiles, Percentile{Q: q, Value: nan})
		}
		return s
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	for _, q := range DescribePercentiles {
		v, _ := cleaner.Quantile(sorted, q)
		s.Percentiles = append(s.Percentiles, Percentile{Q: q, Value: v})
	}
	return s
}

// CircleSpread holds latitude and longitude quantiles of one circle.
type CircleSpread struct {
	Circle string
	Count  int
	Lat    []Percentile
	Lon    []Percentile
}

// CircleQuantiles computes lat/lon quantiles per circle, ordered by circle
// name.
func CircleQuantiles(records []types.Record, qs []float64) []CircleSpread {
	lats := map[string][]float64{}
	lons := map[string][]float64{}
	for _, r := range records {
		lats[r.Circle] = append(lats[r.Circle], r.Lat)
		lons[r.Circle] = append(lons[r.Circle], r.Lon)
	}
	circles := make([]string, 0, len(lats))
	for c := range lats {
		circles = append(circles, c)
	}
	sort.Strings(circles)

	out := make([]CircleSpread, 0, len(circles))
	for _, c := range circles {
		out = append(out, CircleSpread{
			Circle: c,
			Count:  len(lats[c]),
			Lat:    percentiles(lats[c], qs),
			Lon:    percentiles(lons[c], qs),
		})
	}
	return out
}

func percentiles(vals []float64, qs []float64) []Percentile {
	sort.Float64s(vals)
	out := make([]Percentile, len(qs))
	for i, q := range qs {
		v, _ := cleaner.Quantile(vals, q)
		out[i] = Percentile{Q: q, Value: v}
	}
	return out
}
