// Package render draws a computed chart as a self-contained HTML page using
// go-echarts. It is meant for previews; production frontends consume the JSON.
package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/catalog"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

// gap is how echarts expects a missing point.
const gap = "-"

// Options controls page chrome.
type Options struct {
	Title    string
	Subtitle string
	Width    string
	Height   string
	// AssetsHost overrides where echarts.min.js is loaded from.
	AssetsHost string
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Air quality"
	}
	if o.Width == "" {
		o.Width = "100%"
	}
	if o.Height == "" {
		o.Height = "560px"
	}
	return o
}

// Chart writes an HTML line chart of c to w.
func Chart(w io.Writer, c *timeseries.Chart, o Options) error {
	if c == nil {
		return fmt.Errorf("render: nil chart")
	}
	o = o.withDefaults()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  o.Title,
			Width:      o.Width,
			Height:     o.Height,
			AssetsHost: o.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: unitOf(c, timeseries.AxisLeft), Type: "value"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	if hasAxis(c, timeseries.AxisRight) {
		line.ExtendYAxis(opts.YAxis{Name: unitOf(c, timeseries.AxisRight), Type: "value", Position: "right"})
	}

	labels := make([]string, len(c.Records))
	for i, rec := range c.Records {
		labels[i] = rec.Timestamp
	}
	line.SetXAxis(labels)

	for i, d := range c.Series {
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{
				ConnectNulls: opts.Bool(d.ConnectAcrossGaps),
				ShowSymbol:   opts.Bool(false),
				YAxisIndex:   axisIndex(d.AxisID),
			}),
			charts.WithLineStyleOpts(opts.LineStyle{
				Color: d.Color,
				Width: float32(d.StrokeWidth),
				Type:  lineType(d.DashPattern),
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: d.Color}),
		}
		if i == 0 && d.AxisID == timeseries.AxisLeft {
			if marks := thresholdMarks(c.Thresholds); len(marks) > 0 {
				seriesOpts = append(seriesOpts, charts.WithMarkLineNameYAxisItemOpts(marks...))
			}
		}
		line.AddSeries(d.Name, seriesData(c.Records, d.DataKey), seriesOpts...)
	}

	return line.Render(w)
}

func seriesData(records []timeseries.Record, dataKey string) []opts.LineData {
	data := make([]opts.LineData, len(records))
	for i, rec := range records {
		if v, _ := rec.Value(dataKey); v != nil {
			data[i] = opts.LineData{Value: *v}
		} else {
			data[i] = opts.LineData{Value: gap}
		}
	}
	return data
}

func thresholdMarks(bands catalog.Thresholds) []opts.MarkLineNameYAxisItem {
	marks := make([]opts.MarkLineNameYAxisItem, 0, len(bands))
	for _, b := range bands {
		if b.Min <= 0 {
			continue
		}
		marks = append(marks, opts.MarkLineNameYAxisItem{Name: b.Label, YAxis: b.Min})
	}
	return marks
}

func axisIndex(a timeseries.Axis) int {
	if a == timeseries.AxisRight {
		return 1
	}
	return 0
}

// lineType maps an SVG dash pattern to the closest echarts line type.
func lineType(dash string) string {
	switch dash {
	case "":
		return "solid"
	case "5 5":
		return "dashed"
	default:
		return "dotted"
	}
}

func hasAxis(c *timeseries.Chart, axis timeseries.Axis) bool {
	for _, d := range c.Series {
		if d.AxisID == axis {
			return true
		}
	}
	return false
}

func unitOf(c *timeseries.Chart, axis timeseries.Axis) string {
	for unit, a := range c.Units.Axes {
		if a == axis {
			return unit
		}
	}
	return ""
}
