package aggregate

import (
	"sort"

	"celltowers/internal/types"
)

// Count is one row of a grouped count table.
type Count struct {
	Key   string
	Count int
}

// MixRow counts records for one (operator, circle, radio) combination.
type MixRow struct {
	Operator string
	Circle   string
	Radio    string
	Count    int
}

// ByOperator counts records per operator.
func ByOperator(records []types.Record) []Count {
	return countBy(records, func(r types.Record) string { return r.Operator })
}

// ByCircle counts records per circle.
func ByCircle(records []types.Record) []Count {
	return countBy(records, func(r types.Record) string { return r.Circle })
}

// ByRadio counts records per radio generation.
func ByRadio(records []types.Record) []Count {
	return countBy(records, func(r types.Record) string { return r.Radio })
}

func countBy(records []types.Record, key func(types.Record) string) []Count {
	counts := make(map[string]int)
	for _, r := range records {
		counts[key(r)]++
	}
	out := make([]Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Total sums a count table.
func Total(counts []Count) int {
	n := 0
	for _, c := range counts {
		n += c.Count
	}
	return n
}

// Share returns c as a percentage of total, or 0 when total is 0.
func Share(c Count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(c.Count) * 100 / float64(total)
}

// TechMix counts records per (operator, circle, radio).
func TechMix(records []types.Record) []MixRow {
	type key struct{ op, circle, radio string }
	counts := make(map[key]int)
	for _, r := range records {
		counts[key{r.Operator, r.Circle, r.Radio}]++
	}
	out := make([]MixRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, MixRow{Operator: k.op, Circle: k.circle, Radio: k.radio, Count: n})
	}
	sortMix(out)
	return out
}

func sortMix(rows []MixRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Operator != b.Operator {
			return a.Operator < b.Operator
		}
		if a.Circle != b.Circle {
			return a.Circle < b.Circle
		}
		return a.Radio < b.Radio
	})
}

// MixForOperator selects the tech-mix rows of one operator across all
// circles.
func MixForOperator(mix []MixRow, operator string) []MixRow {
	return filterMix(mix, func(m MixRow) bool { return m.Operator == operator })
}

// MixForCircle selects the tech-mix rows of one circle across all
// operators.
func MixForCircle(mix []MixRow, circle string) []MixRow {
	return filterMix(mix, func(m MixRow) bool { return m.Circle == circle })
}

func filterMix(mix []MixRow, keep func(MixRow) bool) []MixRow {
	out := []MixRow{}
	for _, m := range mix {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Pivot is a dense row x column count matrix with sorted labels.
type Pivot struct {
	Rows   []string
	Cols   []string
	Values [][]int // Values[row][col]
}

// PivotRadio spreads mix rows into a matrix of row key x radio generation.
func PivotRadio(mix []MixRow, rowKey func(MixRow) string) Pivot {
	rowIdx := map[string]int{}
	colIdx := map[string]int{}
	for _, m := range mix {
		rowIdx[rowKey(m)] = 0
		colIdx[m.Radio] = 0
	}
	p := Pivot{Rows: sortedKeys(rowIdx), Cols: sortedKeys(colIdx)}
	for i, r := range p.Rows {
		rowIdx[r] = i
	}
	for i, c := range p.Cols {
		colIdx[c] = i
	}
	p.Values = make([][]int, len(p.Rows))
	for i := range p.Values {
		p.Values[i] = make([]int, len(p.Cols))
	}
	for _, m := range mix {
		p.Values[rowIdx[rowKey(m)]][colIdx[m.Radio]] += m.Count
	}
	return p
}

// Operators lists the distinct operators of mix in ascending order.
func Operators(mix []MixRow) []string {
	seen := map[string]int{}
	for _, m := range mix {
		seen[m.Operator] = 0
	}
	return sortedKeys(seen)
}

// Circles lists the distinct circles of mix in ascending order.
func Circles(mix []MixRow) []string {
	seen := map[string]int{}
	for _, m := range mix {
		seen[m.Circle] = 0
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
