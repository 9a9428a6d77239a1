// Package charts renders diagnostic views of a completed report: a static
// hip trajectory plot and an interactive per-frame metrics page.
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/sitrise/internal/srt/analysis"
)

// ErrNoSeries is returned for reports that carry no per-frame data, such as
// failed runs.
var ErrNoSeries = errors.New("report has no per-frame series")

var (
	hipColor        = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	transitionColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// TrajectoryPlot builds the hip height plot for r. Image y grows downwards,
// so the axis is inverted to show the subject's hip dropping to the seat.
func TrajectoryPlot(r *analysis.Report) (*plot.Plot, error) {
	if r.Series == nil || len(r.Series.Hip) == 0 {
		return nil, ErrNoSeries
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Hip trajectory (%s side), sit %.2f / rise %.2f",
		r.Performance.HipSide, r.SitScore, r.RiseScore)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Hip y (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(r.Series.Hip))
	lo, hi := math.Inf(1), math.Inf(-1)
	transitionFrame := -1
	for i, s := range r.Series.Hip {
		pts[i] = plotter.XY{X: float64(s.Frame), Y: s.Y}
		lo, hi = math.Min(lo, s.Y), math.Max(hi, s.Y)
		if s.Index == r.Performance.TransitionIndex {
			transitionFrame = s.Frame
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = hipColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("hip", line)

	if transitionFrame >= 0 {
		marker, err := plotter.NewLine(plotter.XYs{
			{X: float64(transitionFrame), Y: lo},
			{X: float64(transitionFrame), Y: hi},
		})
		if err != nil {
			return nil, err
		}
		marker.Color = transitionColor
		marker.Width = vg.Points(1)
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("transition (%s)", r.Performance.TransitionMethod), marker)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WriteTrajectoryPNG saves the hip trajectory plot of r to path.
func WriteTrajectoryPNG(r *analysis.Report, path string) error {
	p, err := TrajectoryPlot(r)
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}

// WriteTrajectory encodes the hip trajectory plot of r as PNG to w.
func WriteTrajectory(w io.Writer, r *analysis.Report) error {
	p, err := TrajectoryPlot(r)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
