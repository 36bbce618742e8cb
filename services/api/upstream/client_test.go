package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

func TestFetchInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"pm10": [
				{"timestamp": "2024-01-01T00:00:00", "value": 10},
				{"timestamp": 1704070800000, "value": 12}
			]},
			"selectedKeys": ["pm10"],
			"timeStep": "hour"
		}`))
	}))
	defer srv.Close()

	in, err := FetchInput(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"pm10"}, in.SelectedKeys)
	assert.Equal(t, timeseries.StepHour, in.TimeStep)
	require.Len(t, in.Data["pm10"], 2)
	assert.False(t, in.Data["pm10"][0].Timestamp.IsNumeric())
	assert.True(t, in.Data["pm10"][1].Timestamp.IsNumeric())
}

func TestFetchInputErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "status", status: http.StatusBadGateway, body: `{}`, message: "unexpected status"},
		{name: "decode", status: http.StatusOK, body: `{"data": [`, message: "decode payload"},
		{name: "timestamp type", status: http.StatusOK, body: `{"data": {"pm10": [{"timestamp": true}]}}`, message: "decode payload"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := FetchInput(context.Background(), srv.Client(), srv.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestFetchInputCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchInput(ctx, nil, "http://127.0.0.1:1/payload")
	assert.ErrorIs(t, err, context.Canceled)
}
