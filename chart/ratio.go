// Package chart renders ratio series to PNG line charts with mean and
// standard deviation bands.
package chart

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ratiolens/ratio"
)

const (
	chartWidth  = 1600
	chartHeight = 800

	// defaultLineColor is used when a preset does not specify a chart color.
	defaultLineColor = "#FFD700"
)

// flatSeries builds a constant-valued time series spanning the ratio series domain.
func flatSeries(name string, value float64, start time.Time, end time.Time, style chart.Style) chart.TimeSeries {
	return chart.TimeSeries{
		Name:    name,
		Style:   style,
		XValues: []time.Time{start, end},
		YValues: []float64{value, value},
	}
}

// lineColor resolves the chart line color for the provided preset.
func lineColor(preset *ratio.Preset) drawing.Color {
	hex := preset.Color
	if hex == "" {
		hex = defaultLineColor
	}

	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// Render renders the provided ratio series as a PNG line chart with the mean
// line and one and two standard deviation bands, writing the image to w. At
// least two points are required to draw a line.
func Render(series *ratio.Series, summary *ratio.Summary, preset *ratio.Preset, w io.Writer) error {
	if series.Len() < 2 {
		return fmt.Errorf("rendering %s: at least two points required, got %d",
			preset.Name, series.Len())
	}

	xValues := make([]time.Time, 0, series.Len())
	yValues := make([]float64, 0, series.Len())
	for idx := range series.Points {
		xValues = append(xValues, series.Points[idx].Timestamp)
		yValues = append(yValues, series.Points[idx].Ratio)
	}

	start, end := summary.Start, summary.End

	bandStyle := chart.Style{
		StrokeColor:     drawing.ColorFromHex("FFA500"),
		StrokeWidth:     1.0,
		StrokeDashArray: []float64{2.0, 4.0},
	}
	outerBandStyle := chart.Style{
		StrokeColor:     drawing.ColorFromHex("F08080"),
		StrokeWidth:     0.8,
		StrokeDashArray: []float64{2.0, 6.0},
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s (%s/%s) - %s", preset.Name, preset.Label1, preset.Label2, preset.Description),
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: preset.Name,
				Style: chart.Style{
					StrokeColor: lineColor(preset),
					StrokeWidth: 1.5,
				},
				XValues: xValues,
				YValues: yValues,
			},
			flatSeries(fmt.Sprintf("mean: %.2f", summary.Mean), summary.Mean, start, end, chart.Style{
				StrokeColor:     drawing.ColorFromHex("FF0000"),
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 5.0},
			}),
			flatSeries(fmt.Sprintf("+1 std: %.2f", summary.Mean+summary.Std),
				summary.Mean+summary.Std, start, end, bandStyle),
			flatSeries(fmt.Sprintf("-1 std: %.2f", summary.Mean-summary.Std),
				summary.Mean-summary.Std, start, end, bandStyle),
			flatSeries("+2 std", summary.Mean+2*summary.Std, start, end, outerBandStyle),
			flatSeries("-2 std", summary.Mean-2*summary.Std, start, end, outerBandStyle),
			chart.AnnotationSeries{
				Annotations: []chart.Value2{
					{
						XValue: chart.TimeToFloat64(end),
						YValue: summary.Latest,
						Label:  fmt.Sprintf("latest %.2f (%s)", summary.Latest, summary.Classification),
					},
				},
			},
		},
	}

	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	err := graph.Render(chart.PNG, w)
	if err != nil {
		return fmt.Errorf("rendering %s chart: %w", preset.Name, err)
	}

	return nil
}

// RenderFile renders the provided ratio series to a PNG file at path.
func RenderFile(series *ratio.Series, summary *ratio.Summary, preset *ratio.Preset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file with path '%s': %w", path, err)
	}

	err = Render(series, summary, preset, f)
	if err != nil {
		f.Close()
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("closing chart file with path '%s': %w", path, err)
	}

	return nil
}
