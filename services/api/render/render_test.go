package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/catalog"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

func sampleChart(t *testing.T) *timeseries.Chart {
	t.Helper()
	chart, err := timeseries.NewPipeline(nil).Build(timeseries.Input{
		Data: map[string][]timeseries.Observation{
			"pm10": {
				{Timestamp: timeseries.StringTimestamp("2024-01-01T00:00:00Z"), Value: timeseries.Float(12)},
				{Timestamp: timeseries.StringTimestamp("2024-01-01T02:00:00Z"), Value: timeseries.Float(18)},
			},
			"co": {
				{Timestamp: timeseries.StringTimestamp("2024-01-01T00:00:00Z"), Value: timeseries.Float(0.4)},
			},
		},
		SelectedKeys: []string{"pm10", "co"},
		TimeStep:     timeseries.StepHour,
	})
	require.NoError(t, err)
	return chart
}

func TestChartRendersSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Chart(&buf, sampleChart(t), Options{Title: "Station st-1"}))

	html := buf.String()
	assert.Contains(t, html, "Station st-1")
	assert.Contains(t, html, "PM10")
	assert.Contains(t, html, "CO")
	assert.Contains(t, html, "echarts")
}

func TestChartRejectsNil(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Chart(&buf, nil, Options{}))
	assert.Zero(t, buf.Len())
}

func TestSeriesDataMarksGaps(t *testing.T) {
	chart := sampleChart(t)
	require.Len(t, chart.Records, 3)

	data := seriesData(chart.Records, "pm10")
	require.Len(t, data, 3)
	assert.Equal(t, 12.0, data[0].Value)
	assert.Equal(t, gap, data[1].Value)
	assert.Equal(t, 18.0, data[2].Value)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "solid", lineType(""))
	assert.Equal(t, "dashed", lineType("5 5"))
	assert.Equal(t, "dotted", lineType("10 6"))
	assert.Equal(t, 1, axisIndex(timeseries.AxisRight))
	assert.Equal(t, 0, axisIndex(timeseries.AxisLeft))

	marks := thresholdMarks(catalog.Default().Thresholds("pm10"))
	require.Len(t, marks, 5)
	assert.Equal(t, "fair", marks[0].Name)
	assert.Equal(t, 20.0, marks[0].YAxis)

	chart := sampleChart(t)
	assert.True(t, hasAxis(chart, timeseries.AxisRight))
	assert.Equal(t, "mg/m³", unitOf(chart, timeseries.AxisRight))
}
