package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"celltowers/internal/aggregate"
)

var barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// BarChart renders counts as a labelled bar chart PNG at path.
func BarChart(path, title, axis string, counts []aggregate.Count) error {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = axis
	p.Y.Label.Text = "Towers"

	values := make(plotter.Values, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		labels[i] = c.Key
	}

	if len(counts) > 0 {
		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return fmt.Errorf("bar chart %s: %w", title, err)
		}
		bars.Color = barColor
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = math.Pi / 3
		p.X.Tick.Label.YAlign = draw.YCenter
		p.X.Tick.Label.XAlign = draw.XRight
		p.Y.Min = 0
	}
	p.Add(plotter.NewGrid())

	width := 8 * vg.Inch
	if n := vg.Length(len(counts)); n > 10 {
		width = n * 0.6 * vg.Inch
	}
	if err := p.Save(width, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteCharts renders the operator and circle bar charts into dir and
// returns their paths.
func WriteCharts(dir string, byOperator, byCircle []aggregate.Count) ([]string, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	ops := filepath.Join(dir, OperatorsChart)
	if err := BarChart(ops, "Towers by operator", "Operator", byOperator); err != nil {
		return nil, err
	}
	circles := filepath.Join(dir, CirclesChart)
	if err := BarChart(circles, "Towers by circle", "Circle", byCircle); err != nil {
		return nil, err
	}
	return []string{ops, circles}, nil
}
