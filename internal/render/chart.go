// Package render draws application state: charts as images and the rest as
// styled terminal text.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/naka-gawa/stargazers/internal/domain"
)

// ErrEmptyChart is returned when there is nothing to draw.
var ErrEmptyChart = errors.New("chart has no data points")

// Default image size.
const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

// PNG draws spec as a line chart. Single-point series are widened to a short
// segment so the renderer has a range to work with; empty series are skipped.
func PNG(w io.Writer, spec domain.ChartSpec, width, height int) error {
	ch, err := buildChart(spec, width, height)
	if err != nil {
		return err
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// SVG is like PNG but emits SVG.
func SVG(w io.Writer, spec domain.ChartSpec, width, height int) error {
	ch, err := buildChart(spec, width, height)
	if err != nil {
		return err
	}
	if err := ch.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func buildChart(spec domain.ChartSpec, width, height int) (chart.Chart, error) {
	series := make([]chart.Series, 0, len(spec.Series))
	for _, s := range spec.Series {
		if len(s.Data) == 0 {
			continue
		}
		xs := make([]time.Time, 0, len(s.Data)+1)
		ys := make([]float64, 0, len(s.Data)+1)
		for _, p := range s.Data {
			xs = append(xs, p.Timestamp)
			ys = append(ys, float64(p.Count))
		}
		if len(xs) == 1 {
			xs = append(xs, xs[0].Add(24*time.Hour))
			ys = append(ys, ys[0])
		}
		series = append(series, chart.TimeSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: parseColor(s.Color),
				StrokeWidth: 2,
			},
		})
	}
	if len(series) == 0 {
		return chart.Chart{}, ErrEmptyChart
	}

	lo, hi := float64(spec.YAxis.Min), float64(spec.YAxis.Max)
	if hi <= lo {
		hi = lo + 1
	}
	layout := spec.Tooltip.Layout
	if layout == "" {
		layout = "02 Jan 2006"
	}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(layout),
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

// parseColor accepts "#rrggbb" or "rrggbb". Anything unparsable falls back
// to the library's default series color.
func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return drawing.Color{}
	}
	return drawing.ColorFromHex(hex)
}
