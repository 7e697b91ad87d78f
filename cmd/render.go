package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"celltowers/internal/aggregate"
	"celltowers/internal/cleaner"
	"celltowers/internal/pipeline"
)

const previewRows = 10

// renderReport prints the console dashboard: preview, describe table,
// cleaning summary, counts and the technology mix per operator.
func renderReport(w io.Writer, res *pipeline.Result) {
	rule := strings.Repeat("-", 80)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Raw towers (first %d of %d)\n", min(previewRows, len(res.Towers)), len(res.Towers))
	fmt.Fprintf(w, "%-5s %4s %5s %6s %12s %11s %11s %6s %6s %3s\n", "RADIO", "MCC", "MNC", "LAC", "CID", "LONG", "LAT", "RANGE", "SAMPLE", "CHG")
	for i, t := range res.Towers {
		if i == previewRows {
			break
		}
		fmt.Fprintf(w, "%-5s %4d %5d %6d %12d %11.6f %11.6f %6d %6d %3d\n",
			t.Radio, t.MCC, t.MNC, t.LAC, t.CID, t.Lon, t.Lat, t.Range, t.Samples, t.Changeable)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Raw tower statistics")
	renderDescribe(w, res.Describe)

	fmt.Fprintln(w, rule)
	s := res.Clean.Stats
	fmt.Fprintf(w, "Input rows        : %d\n", s.Input)
	fmt.Fprintf(w, "After join        : %d\n", s.Joined)
	fmt.Fprintf(w, "  Inferred        : -%d\n", s.Inferred)
	fmt.Fprintf(w, "  No operator     : -%d\n", s.Unmatched)
	fmt.Fprintf(w, "  Defunct operator: -%d\n", s.Defunct)
	fmt.Fprintf(w, "  Unlisted circle : -%d\n", s.OutOfCircle)
	fmt.Fprintf(w, "  Outside band    : -%d\n", s.Trimmed)
	fmt.Fprintf(w, "Corrected rows    : %s%d%s\n", colorGreen, s.Output, colorReset)
	for _, c := range res.Clean.Circles {
		if len(c.Records) == 0 {
			fmt.Fprintf(w, "%s[empty] %s%s\n", colorRed, c.Circle, colorReset)
		}
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Circle coordinate quantiles (before trim)")
	renderSpread(w, res.Spread)

	fmt.Fprintln(w, rule)
	renderCounts(w, "Operator", res.ByOperator)
	fmt.Fprintln(w)
	renderCounts(w, "Circle", res.ByCircle)
	fmt.Fprintln(w)
	renderCounts(w, "Radio", res.ByRadio)

	for _, op := range aggregate.Operators(res.TechMix) {
		fmt.Fprintln(w, rule)
		renderMix(w, "operator", op, aggregate.MixForOperator(res.TechMix, op))
	}
	fmt.Fprintln(w, rule)
}

func renderDescribe(w io.Writer, summaries []aggregate.Summary) {
	fmt.Fprintf(w, "%-10s %9s %14s %14s %14s", "", "count", "mean", "std", "min")
	for _, q := range aggregate.DescribePercentiles {
		fmt.Fprintf(w, " %14s", fmt.Sprintf("%.0f%%", q*100))
	}
	fmt.Fprintf(w, " %14s\n", "max")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-10s %9d %14s %14s %14s", s.Column, s.Count, num(s.Mean), num(s.Std), num(s.Min))
		for _, p := range s.Percentiles {
			fmt.Fprintf(w, " %14s", num(p.Value))
		}
		fmt.Fprintf(w, " %14s\n", num(s.Max))
	}
}

func renderSpread(w io.Writer, spread []aggregate.CircleSpread) {
	fmt.Fprintf(w, "%-34s %4s %9s", "Circle", "", "count")
	for _, q := range aggregate.DescribePercentiles {
		fmt.Fprintf(w, " %9s", fmt.Sprintf("%.0f%%", q*100))
	}
	fmt.Fprintln(w)
	for _, c := range spread {
		for _, axis := range []struct {
			name string
			ps   []aggregate.Percentile
		}{{"lat", c.Lat}, {"long", c.Lon}} {
			fmt.Fprintf(w, "%-34s %4s %9d", c.Circle, axis.name, c.Count)
			for _, p := range axis.ps {
				fmt.Fprintf(w, " %9.4f", p.Value)
			}
			fmt.Fprintln(w)
		}
	}
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}

func renderCounts(w io.Writer, title string, counts []aggregate.Count) {
	total := aggregate.Total(counts)
	fmt.Fprintf(w, "%-34s %9s %8s\n", title, "Towers", "Share")
	for _, c := range counts {
		fmt.Fprintf(w, "%-34s %9d %7.2f%%\n", c.Key, c.Count, aggregate.Share(c, total))
	}
	fmt.Fprintf(w, "%-34s %9d\n", "Total", total)
}

// renderMix prints a selection's technology mix as a pivot: circles x radio
// for an operator, operators x radio for a circle.
func renderMix(w io.Writer, kind, name string, rows []aggregate.MixRow) {
	rowKey := func(m aggregate.MixRow) string { return m.Circle }
	rowTitle := "Circle"
	if kind == "circle" {
		rowKey = func(m aggregate.MixRow) string { return m.Operator }
		rowTitle = "Operator"
	}
	p := aggregate.PivotRadio(rows, rowKey)

	fmt.Fprintf(w, "Technology mix for %s %s\n", kind, name)
	fmt.Fprintf(w, "%-34s", rowTitle)
	for _, c := range p.Cols {
		fmt.Fprintf(w, " %8s", c)
	}
	fmt.Fprintf(w, " %8s\n", "Total")
	totals := make([]int, len(p.Cols))
	for i, r := range p.Rows {
		fmt.Fprintf(w, "%-34s", r)
		sum := 0
		for j, v := range p.Values[i] {
			fmt.Fprintf(w, " %8d", v)
			sum += v
			totals[j] += v
		}
		fmt.Fprintf(w, " %8d\n", sum)
	}
	fmt.Fprintf(w, "%-34s", "Total")
	grand := 0
	for _, t := range totals {
		fmt.Fprintf(w, " %8d", t)
		grand += t
	}
	fmt.Fprintf(w, " %8d\n", grand)
}

// circleName maps a display label such as "Delhi NCR" to its canonical
// circle name; anything else is returned unchanged.
func circleName(v string) string {
	for _, s := range cleaner.CircleSpecs() {
		if strings.EqualFold(s.Label, v) {
			return s.Circle
		}
	}
	return v
}
