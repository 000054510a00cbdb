// Package figures renders the publication figures with gonum/plot. Each
// figure is written twice, as PNG for review and TIFF for submission.
package figures

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sihress/internal/descriptive"
	"sihress/internal/regression"
)

// Renderer writes figures into the output directory.
type Renderer struct {
	outputDir string
	logger    *slog.Logger
}

// NewRenderer creates a renderer rooted at outputDir, creating it if needed.
func NewRenderer(outputDir string, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create figures directory: %w", err)
	}
	return &Renderer{outputDir: outputDir, logger: logger}, nil
}

// MortalityByAge renders Figure 1, the mortality rate per age band as a
// line-and-points series with value labels. Returns the written paths.
func (r *Renderer) MortalityByAge(bands []descriptive.BandRate) ([]string, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("no age bands to plot")
	}

	p := plot.New()
	p.Title.Text = "In-hospital mortality by age band"
	p.X.Label.Text = "Age band (years)"
	p.Y.Label.Text = "Mortality rate (%)"
	p.Y.Min = 0

	pts := make(plotter.XYs, len(bands))
	labels := make([]string, len(bands))
	names := make([]string, len(bands))
	for i, band := range bands {
		pts[i].X = float64(i)
		pts[i].Y = band.Rate
		labels[i] = fmt.Sprintf("%.2f%%", band.Rate)
		names[i] = band.Label
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("build line series: %w", err)
	}
	line.Color = color.RGBA{R: 139, A: 255} // dark red
	line.Width = vg.Points(2)
	points.Shape = draw.CircleGlyph{}
	points.Color = line.Color
	points.Radius = vg.Points(4)

	valueLabels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    offsetY(pts, 0.2),
		Labels: labels,
	})
	if err != nil {
		return nil, fmt.Errorf("build value labels: %w", err)
	}

	p.Add(plotter.NewGrid(), line, points, valueLabels)
	p.NominalX(names...)

	return r.save(p, 10*vg.Inch, 6*vg.Inch, "fig1_mortality_by_age")
}

// ReadmissionByProcedure renders Figure 2, the readmission rate per
// procedure category as a bar chart. The caller provides the rates already
// sorted in display order.
func (r *Renderer) ReadmissionByProcedure(rates []descriptive.CategoryRate) ([]string, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("no category rates to plot")
	}

	p := plot.New()
	p.Title.Text = "30-day readmission by procedure category"
	p.X.Label.Text = "Procedure category"
	p.Y.Label.Text = "Readmission rate (%)"
	p.Y.Min = 0

	values := make(plotter.Values, len(rates))
	names := make([]string, len(rates))
	for i, cr := range rates {
		values[i] = cr.Rate
		names[i] = string(cr.Category)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("build bar chart: %w", err)
	}
	bars.LineStyle.Width = 0
	bars.Color = color.RGBA{R: 68, G: 119, B: 170, A: 255}

	p.Add(plotter.NewGrid(), bars)
	p.NominalX(names...)

	return r.save(p, 10*vg.Inch, 7*vg.Inch, "fig2_readmission_by_procedure")
}

// Forest renders Figure 3, the odds ratios with 95% confidence intervals on
// a log-scaled axis with a reference line at OR = 1. The caller provides the
// terms already filtered and ordered.
func (r *Renderer) Forest(terms []regression.Term) ([]string, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("no terms to plot")
	}

	p := plot.New()
	p.Title.Text = "Factors associated with 30-day readmission (OR, 95% CI)"
	p.X.Label.Text = "Odds ratio (log scale)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	data := forestData{
		XYs:     make(plotter.XYs, len(terms)),
		XErrors: make(plotter.XErrors, len(terms)),
	}
	names := make([]string, len(terms))
	for i, term := range terms {
		data.XYs[i].X = term.OR
		data.XYs[i].Y = float64(i)
		data.XErrors[i].Low = term.OR - term.CILow
		data.XErrors[i].High = term.CIHigh - term.OR
		names[i] = term.Name
	}

	points, err := plotter.NewScatter(data.XYs)
	if err != nil {
		return nil, fmt.Errorf("build OR points: %w", err)
	}
	points.Shape = draw.CircleGlyph{}
	points.Color = color.RGBA{B: 139, A: 255} // dark blue
	points.Radius = vg.Points(4)

	errBars, err := plotter.NewXErrorBars(data)
	if err != nil {
		return nil, fmt.Errorf("build CI bars: %w", err)
	}
	errBars.Color = color.RGBA{R: 120, G: 170, B: 210, A: 255}

	reference, err := plotter.NewLine(plotter.XYs{
		{X: 1, Y: -0.5},
		{X: 1, Y: float64(len(terms)) - 0.5},
	})
	if err != nil {
		return nil, fmt.Errorf("build reference line: %w", err)
	}
	reference.Color = color.RGBA{R: 200, A: 255}
	reference.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(errBars, points, reference)
	p.NominalY(names...)

	return r.save(p, 10*vg.Inch, 7*vg.Inch, "fig3_forest_plot")
}

// forestData pairs point positions with asymmetric horizontal errors for
// the plotter error-bar interface.
type forestData struct {
	plotter.XYs
	plotter.XErrors
}

// save writes the plot as both PNG and TIFF and returns the paths.
func (r *Renderer) save(p *plot.Plot, w, h vg.Length, baseName string) ([]string, error) {
	var paths []string
	for _, ext := range []string{".png", ".tif"} {
		path := filepath.Join(r.outputDir, baseName+ext)
		if err := p.Save(w, h, path); err != nil {
			return nil, fmt.Errorf("save %s: %w", filepath.Base(path), err)
		}
		paths = append(paths, path)
	}

	r.logger.Info("figure written",
		"figure", baseName,
		"formats", len(paths),
	)
	return paths, nil
}

// offsetY shifts label anchor points upward so they clear the markers.
func offsetY(pts plotter.XYs, delta float64) plotter.XYs {
	shifted := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		shifted[i].X = pt.X
		shifted[i].Y = pt.Y + delta
	}
	return shifted
}
