package report

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"celltowers/internal/aggregate"
	"celltowers/internal/pipeline"
	"celltowers/internal/types"
)

// Workbook sheet names.
const (
	SheetOperators = "Operators"
	SheetCircles   = "Circles"
	SheetTechMix   = "Tech Mix"
	SheetDescribe  = "Describe"
	SheetQuantiles = "Circle Quantiles"
	SheetCorrected = "Corrected"
)

// WriteWorkbook writes the count tables, tech mix, describe table, per-circle
// coordinate quantiles and the corrected rows to dir/towers.xlsx with native pie and stacked column
// charts. It returns the file path.
func WriteWorkbook(dir string, res *pipeline.Result) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", err
	}

	if err := f.SetSheetName("Sheet1", SheetOperators); err != nil {
		return "", err
	}
	if err := writeCountSheet(f, SheetOperators, "Operator", res.ByOperator, bold); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(SheetCircles); err != nil {
		return "", err
	}
	if err := writeCountSheet(f, SheetCircles, "Circle", res.ByCircle, bold); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(SheetTechMix); err != nil {
		return "", err
	}
	if err := writeTechMixSheet(f, res.TechMix, bold); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(SheetDescribe); err != nil {
		return "", err
	}
	if err := writeDescribeSheet(f, res.Describe, bold); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(SheetQuantiles); err != nil {
		return "", err
	}
	if err := writeQuantilesSheet(f, res.Spread, bold); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(SheetCorrected); err != nil {
		return "", err
	}
	if err := writeCorrectedSheet(f, res); err != nil {
		return "", err
	}

	path := filepath.Join(dir, WorkbookFile)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// ref builds an absolute range reference such as 'Tech Mix'!$B$2:$B$9.
func ref(sheet string, col, fromRow, toRow int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", sheet, name, fromRow, name, toRow)
}

func writeCountSheet(f *excelize.File, sheet, keyHeader string, counts []aggregate.Count, bold int) error {
	total := aggregate.Total(counts)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{keyHeader, "Towers", "Share %"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", bold); err != nil {
		return err
	}
	for i, c := range counts {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{c.Key, c.Count, aggregate.Share(c, total)}); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 34); err != nil {
		return err
	}
	if len(counts) == 0 {
		return nil
	}

	last := len(counts) + 1
	return f.AddChart(sheet, "E2", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheet),
			Categories: ref(sheet, 1, 2, last),
			Values:     ref(sheet, 2, 2, last),
		}},
		Title:     []excelize.RichTextRun{{Text: "Towers by " + keyHeader}},
		Legend:    excelize.ChartLegend{Position: "right"},
		PlotArea:  excelize.ChartPlotArea{ShowPercent: true},
		Dimension: excelize.ChartDimension{Width: 640, Height: 400},
	})
}

// writeTechMixSheet lays out one circle x radio block per operator, each with
// a stacked column chart to its right.
func writeTechMixSheet(f *excelize.File, mix []aggregate.MixRow, bold int) error {
	row := 1
	for _, op := range aggregate.Operators(mix) {
		p := aggregate.PivotRadio(aggregate.MixForOperator(mix, op), func(m aggregate.MixRow) string { return m.Circle })

		title, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(SheetTechMix, title, op); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetTechMix, title, title, bold); err != nil {
			return err
		}

		header := []interface{}{"Circle"}
		for _, c := range p.Cols {
			header = append(header, c)
		}
		headerRow := row + 1
		cell, _ := excelize.CoordinatesToCellName(1, headerRow)
		if err := f.SetSheetRow(SheetTechMix, cell, &header); err != nil {
			return err
		}
		for i, circle := range p.Rows {
			values := []interface{}{circle}
			for _, v := range p.Values[i] {
				values = append(values, v)
			}
			cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
			if err := f.SetSheetRow(SheetTechMix, cell, &values); err != nil {
				return err
			}
		}

		first, last := headerRow+1, headerRow+len(p.Rows)
		series := make([]excelize.ChartSeries, len(p.Cols))
		for j := range p.Cols {
			colName, _ := excelize.ColumnNumberToName(j + 2)
			series[j] = excelize.ChartSeries{
				Name:       fmt.Sprintf("'%s'!$%s$%d", SheetTechMix, colName, headerRow),
				Categories: ref(SheetTechMix, 1, first, last),
				Values:     ref(SheetTechMix, j+2, first, last),
			}
		}
		anchor, _ := excelize.CoordinatesToCellName(len(p.Cols)+3, row)
		if err := f.AddChart(SheetTechMix, anchor, &excelize.Chart{
			Type:      excelize.ColStacked,
			Series:    series,
			Title:     []excelize.RichTextRun{{Text: op + " technology mix by circle"}},
			Legend:    excelize.ChartLegend{Position: "bottom"},
			Dimension: excelize.ChartDimension{Width: 720, Height: 360},
		}); err != nil {
			return err
		}

		// Leave room for the chart before the next block.
		next := headerRow + len(p.Rows) + 2
		if floor := row + 20; next < floor {
			next = floor
		}
		row = next
	}
	return f.SetColWidth(SheetTechMix, "A", "A", 34)
}

func writeDescribeSheet(f *excelize.File, summaries []aggregate.Summary, bold int) error {
	header := []interface{}{"", "count", "mean", "std", "min"}
	for _, q := range aggregate.DescribePercentiles {
		header = append(header, fmt.Sprintf("%.0f%%", q*100))
	}
	header = append(header, "max")
	if err := f.SetSheetRow(SheetDescribe, "A1", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(SheetDescribe, "A1", lastCol, bold); err != nil {
		return err
	}
	for i, s := range summaries {
		row := []interface{}{s.Column, s.Count, cellFloat(s.Mean), cellFloat(s.Std), cellFloat(s.Min)}
		for _, p := range s.Percentiles {
			row = append(row, cellFloat(p.Value))
		}
		row = append(row, cellFloat(s.Max))
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetDescribe, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// writeQuantilesSheet writes one lat row and one long row per circle.
func writeQuantilesSheet(f *excelize.File, spread []aggregate.CircleSpread, bold int) error {
	header := []interface{}{"Circle", "Axis", "count"}
	for _, q := range aggregate.DescribePercentiles {
		header = append(header, fmt.Sprintf("%.0f%%", q*100))
	}
	if err := f.SetSheetRow(SheetQuantiles, "A1", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(SheetQuantiles, "A1", lastCol, bold); err != nil {
		return err
	}
	row := 2
	for _, c := range spread {
		for _, axis := range []struct {
			name string
			ps   []aggregate.Percentile
		}{{"lat", c.Lat}, {"long", c.Lon}} {
			values := []interface{}{c.Circle, axis.name, c.Count}
			for _, p := range axis.ps {
				values = append(values, cellFloat(p.Value))
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(SheetQuantiles, cell, &values); err != nil {
				return err
			}
			row++
		}
	}
	return f.SetColWidth(SheetQuantiles, "A", "A", 34)
}

// cellFloat leaves NaN cells blank; Excel has no NaN.
func cellFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return ""
	}
	return v
}

func writeCorrectedSheet(f *excelize.File, res *pipeline.Result) error {
	sw, err := f.NewStreamWriter(SheetCorrected)
	if err != nil {
		return err
	}
	header := make([]interface{}, len(types.Columns))
	for i, c := range types.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, r := range res.Clean.Corrected {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, []interface{}{r.Radio, r.MCC, r.MNC, r.CID, r.Lon, r.Lat, r.Operator, r.Circle}); err != nil {
			return err
		}
	}
	return sw.Flush()
}
