package report

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/swimlab/agecurve/internal/aggregate"
	"github.com/swimlab/agecurve/internal/dataset"
	"github.com/swimlab/agecurve/internal/ensemble"
)

// curvePalette cycles through line colors in the table's model order.
var curvePalette = []color.RGBA{
	{R: 20, G: 80, B: 200, A: 255},
	{R: 200, G: 30, B: 30, A: 255},
	{R: 40, G: 140, B: 60, A: 255},
	{R: 150, G: 60, B: 180, A: 255},
	{R: 220, G: 140, B: 20, A: 255},
}

// WritePlots renders the model-curve chart and the stacked-band chart for
// each sex into dir and returns the files written.
func WritePlots(table *aggregate.Table, dir string) ([]string, error) {
	var written []string
	for _, sex := range dataset.Sexes {
		curvePath := filepath.Join(dir, fmt.Sprintf("curves_%s.png", strings.ToLower(string(sex))))
		if err := writeCurvePlot(table, sex, curvePath); err != nil {
			return written, fmt.Errorf("curves for %s: %w", sexLabel(sex), err)
		}
		written = append(written, curvePath)

		bandPath := filepath.Join(dir, fmt.Sprintf("band_%s.png", strings.ToLower(string(sex))))
		if err := writeBandPlot(table, sex, bandPath); err != nil {
			return written, fmt.Errorf("band for %s: %w", sexLabel(sex), err)
		}
		written = append(written, bandPath)
	}
	return written, nil
}

// writeCurvePlot draws one mean line per model.
func writeCurvePlot(table *aggregate.Table, sex dataset.Sex, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Predicted ratio by age (%s)", sexLabel(sex))
	p.X.Label.Text = "age"
	p.Y.Label.Text = "ratio vs age-35 pace"

	for i, model := range table.Models() {
		xys := curvePoints(table, sex, model)
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = curvePalette[i%len(curvePalette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(model, line)
	}

	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// writeBandPlot draws the stacked model's mean line over its percentile
// ribbon.
func writeBandPlot(table *aggregate.Table, sex dataset.Sex, path string) error {
	rows := rowsFor(table, sex, ensemble.VariantStack)
	if len(rows) == 0 {
		return fmt.Errorf("no stacked rows to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Stacked curve with percentile band (%s)", sexLabel(sex))
	p.X.Label.Text = "age"
	p.Y.Label.Text = "ratio vs age-35 pace"

	// Ribbon: upper bound left to right, then lower bound back.
	band := make(plotter.XYs, 0, 2*len(rows))
	for _, r := range rows {
		band = append(band, plotter.XY{X: float64(r.Age), Y: r.Hi})
	}
	for i := len(rows) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: float64(rows[i].Age), Y: rows[i].Lo})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return err
	}
	poly.Color = color.RGBA{R: 20, G: 80, B: 200, A: 60}
	poly.LineStyle.Color = color.RGBA{}
	p.Add(poly)

	mean := make(plotter.XYs, 0, len(rows))
	for _, r := range rows {
		mean = append(mean, plotter.XY{X: float64(r.Age), Y: r.Mean})
	}
	line, err := plotter.NewLine(mean)
	if err != nil {
		return err
	}
	line.Color = curvePalette[0]
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("stack", line)

	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

func curvePoints(table *aggregate.Table, sex dataset.Sex, model string) plotter.XYs {
	rows := rowsFor(table, sex, model)
	xys := make(plotter.XYs, 0, len(rows))
	for _, r := range rows {
		xys = append(xys, plotter.XY{X: float64(r.Age), Y: r.Mean})
	}
	return xys
}

// rowsFor filters to one sex and model; table order keeps ages ascending.
func rowsFor(table *aggregate.Table, sex dataset.Sex, model string) []aggregate.Row {
	var rows []aggregate.Row
	for _, r := range table.Rows() {
		if r.Sex == sex && r.Model == model {
			rows = append(rows, r)
		}
	}
	return rows
}
