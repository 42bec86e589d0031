package render

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Series colors of the irrigation charts.
var (
	SeriesOlive = drawing.Color{R: 0x8B, G: 0x80, B: 0x00, A: 0xFF}
	SeriesGrey  = drawing.Color{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
)

// TimeSeriesChart renders one annotated line chart to PNG: dates on the X
// axis, one numeric series on Y, every point labeled with its value.
type TimeSeriesChart struct {
	Title  string
	YLabel string
	Color  drawing.Color
	Dates  []time.Time
	Values []float64
}

// Render draws the chart. At least two points are required; a chart section
// is only ever emitted for multi-record reports.
func (c TimeSeriesChart) Render() ([]byte, error) {
	if len(c.Dates) != len(c.Values) {
		return nil, fmt.Errorf("chart %q: %d dates for %d values", c.Title, len(c.Dates), len(c.Values))
	}
	if len(c.Values) < 2 {
		return nil, errors.New("time series chart needs at least two points")
	}

	style := chart.Style{
		StrokeColor: c.Color,
		StrokeWidth: 2.0,
		DotColor:    c.Color,
		DotWidth:    4.0,
	}

	annotations := make([]chart.Value2, 0, len(c.Values))
	for i, v := range c.Values {
		annotations = append(annotations, chart.Value2{
			XValue: timeToFloat(c.Dates[i]),
			YValue: v,
			Label:  strconv.FormatFloat(v, 'f', -1, 64),
		})
	}

	xmin, xmax := timeRange(c.Dates)
	ymin, ymax := valueRange(c.Values)

	graph := chart.Chart{
		Title:  c.Title,
		Width:  1400,
		Height: 700,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("02/01/2006"),
			Range:          padIfCollapsed(xmin, xmax, float64(24*time.Hour)),
		},
		YAxis: chart.YAxis{
			Name:  c.YLabel,
			Range: padIfCollapsed(ymin, ymax, 1),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    c.YLabel,
				XValues: c.Dates,
				YValues: c.Values,
				Style:   style,
			},
			chart.AnnotationSeries{Annotations: annotations},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart %q: %w", c.Title, err)
	}
	return buf.Bytes(), nil
}

// timeToFloat mirrors the library's time-to-axis conversion.
func timeToFloat(t time.Time) float64 {
	return float64(t.UnixNano())
}

func timeRange(dates []time.Time) (min, max float64) {
	min, max = timeToFloat(dates[0]), timeToFloat(dates[0])
	for _, d := range dates[1:] {
		f := timeToFloat(d)
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	return min, max
}

func valueRange(values []float64) (min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// padIfCollapsed widens a degenerate axis range; the chart library cannot
// scale a zero-width domain.
func padIfCollapsed(min, max, pad float64) chart.Range {
	if min != max {
		return nil
	}
	return &chart.ContinuousRange{Min: min - pad, Max: max + pad}
}
