package charts

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/sitrise/internal/srt/analysis"
	"github.com/banshee-data/sitrise/internal/srt/scoring"
)

// missing is how ECharts marks a gap in a series.
const missing = "-"

func point(m scoring.Measurement) opts.LineData {
	if !m.Valid {
		return opts.LineData{Value: missing}
	}
	return opts.LineData{Value: m.Score}
}

func scoreAxis() charts.GlobalOpts {
	return charts.WithYAxisOpts(opts.YAxis{Name: "score", Min: 0.0, Max: 1.0})
}

func sittingChart(r *analysis.Report) *charts.Line {
	frames := r.Series.Sitting
	x := make([]string, len(frames))
	kf := make([]opts.LineData, len(frames))
	hc := make([]opts.LineData, len(frames))
	sa := make([]opts.LineData, len(frames))
	for i, f := range frames {
		x[i] = strconv.Itoa(f.Frame)
		kf[i], hc[i], sa[i] = point(f.KneeFlexion), point(f.HipControl), point(f.SpinalAlignment)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sitting phase", Subtitle: fmt.Sprintf("sit score %.2f", r.SitScore)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		scoreAxis(),
	)
	line.SetXAxis(x).
		AddSeries("knee flexion", kf).
		AddSeries("hip control", hc).
		AddSeries("spinal alignment", sa)
	return line
}

func risingChart(r *analysis.Report) *charts.Line {
	frames := r.Series.Rising
	x := make([]string, len(frames))
	ke := make([]opts.LineData, len(frames))
	hd := make([]opts.LineData, len(frames))
	st := make([]opts.LineData, len(frames))
	for i, f := range frames {
		x[i] = strconv.Itoa(f.Frame)
		ke[i], hd[i], st[i] = point(f.KneeExtension), point(f.HipDrive), point(f.Stability)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Rising phase", Subtitle: fmt.Sprintf("rise score %.2f", r.RiseScore)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		scoreAxis(),
	)
	line.SetXAxis(x).
		AddSeries("knee extension", ke).
		AddSeries("hip drive", hd).
		AddSeries("stability", st)
	return line
}

func summaryChart(r *analysis.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Composite indices", Subtitle: fmt.Sprintf("total %.2f / 10", r.TotalScore)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		scoreAxis(),
	)
	bar.SetXAxis([]string{"postural control", "balance", "coordination"}).
		AddSeries("index", []opts.BarData{
			{Value: r.PosturalControl},
			{Value: r.Balance},
			{Value: r.Coordination},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// RenderMetricsHTML writes an HTML page charting the per-frame metric
// scores of both phases and the composite indices of r.
func RenderMetricsHTML(w io.Writer, r *analysis.Report) error {
	if r.Series == nil {
		return ErrNoSeries
	}
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("Sit-to-rise report %s", r.ID))
	page.AddCharts(summaryChart(r), sittingChart(r), risingChart(r))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render metrics page: %w", err)
	}
	return nil
}
