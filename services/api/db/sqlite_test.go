package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) *SQLiteSource {
	t.Helper()
	ctx := context.Background()

	src, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "aq.db"))
	require.NoError(t, err)
	t.Cleanup(src.Close)

	stmts := []string{
		`INSERT INTO stations (id, name, lat, lon, city, dual_calibration) VALUES
			('st-1', 'Downtown', 6.25, -75.56, 'Medellín', 1),
			('st-2', NULL, 6.30, -75.50, NULL, 0)`,
		`INSERT INTO measurements (station_id, pollutant, ts, value, corrected_value, raw_value, unit) VALUES
			('st-1', 'pm10', '2024-01-01T04:00:00Z', NULL, 30, 33, 'µg/m³'),
			('st-1', 'pm10', '2024-01-01T00:00:00Z', NULL, 20, 21, 'µg/m³'),
			('st-1', 'pm10', '2024-01-01T01:00:00', NULL, 22, NULL, NULL),
			('st-1', 'pm10', '2024-01-01T03:00:00+01:00', NULL, 25, 27, 'µg/m³'),
			('st-1', 'pm25', '2024-01-01T00:00:00Z', 9, NULL, NULL, 'µg/m³'),
			('st-2', 'pm10', '2024-01-01T00:00:00Z', 5, NULL, NULL, NULL)`,
		`INSERT INTO model_values (station_id, pollutant, ts, value, unit) VALUES
			('st-1', 'pm10', '2024-01-01T00:30:00Z', 19, 'µg/m³')`,
	}
	for _, stmt := range stmts {
		_, err := src.db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return src
}

func TestSQLiteListStations(t *testing.T) {
	src := openFixture(t)

	stations, err := src.ListStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)

	assert.Equal(t, "st-1", stations[0].ID)
	assert.Equal(t, "Downtown", stations[0].DisplayName())
	assert.True(t, stations[0].DualCalibration)
	require.NotNil(t, stations[0].City)
	assert.Equal(t, "Medellín", *stations[0].City)

	assert.Nil(t, stations[1].Name)
	assert.Equal(t, "st-2", stations[1].DisplayName())
	assert.False(t, stations[1].DualCalibration)
}

func TestSQLiteGetStation(t *testing.T) {
	src := openFixture(t)

	st, err := src.GetStation(context.Background(), "st-2")
	require.NoError(t, err)
	assert.Equal(t, "st-2", st.ID)

	_, err = src.GetStation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteFetchObservations(t *testing.T) {
	src := openFixture(t)
	ctx := context.Background()

	obs, err := src.FetchObservations(ctx, ObservationQuery{StationID: "st-1", Pollutant: "PM10"})
	require.NoError(t, err)
	require.Len(t, obs, 4)

	got := make([]string, 0, len(obs))
	for _, o := range obs {
		assert.False(t, o.Timestamp.IsNumeric())
		got = append(got, o.Timestamp.String())
	}
	assert.Equal(t, []string{
		"2024-01-01T00:00:00Z",
		"2024-01-01T01:00:00",
		"2024-01-01T03:00:00+01:00",
		"2024-01-01T04:00:00Z",
	}, got)

	assert.Nil(t, obs[0].Value)
	require.NotNil(t, obs[0].CorrectedValue)
	assert.Equal(t, 20.0, *obs[0].CorrectedValue)
	assert.Equal(t, 21.0, *obs[0].RawValue)
	assert.Nil(t, obs[1].RawValue)
	assert.Empty(t, obs[1].Unit)
	assert.Equal(t, "µg/m³", obs[0].Unit)
}

func TestSQLiteFetchObservationsRange(t *testing.T) {
	src := openFixture(t)

	since := time.Date(2024, time.January, 1, 1, 0, 0, 0, time.UTC)
	until := time.Date(2024, time.January, 1, 2, 0, 0, 0, time.UTC)
	obs, err := src.FetchObservations(context.Background(), ObservationQuery{
		StationID: "st-1",
		Pollutant: "pm10",
		Since:     &since,
		Until:     &until,
	})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "2024-01-01T01:00:00", obs[0].Timestamp.String())
	assert.Equal(t, "2024-01-01T03:00:00+01:00", obs[1].Timestamp.String())

	limited, err := src.FetchObservations(context.Background(), ObservationQuery{StationID: "st-1", Pollutant: "pm10", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "2024-01-01T00:00:00Z", limited[0].Timestamp.String())
}

func TestSQLiteFetchModeling(t *testing.T) {
	src := openFixture(t)

	obs, err := src.FetchModeling(context.Background(), ObservationQuery{StationID: "st-1", Pollutant: "pm10"})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	require.NotNil(t, obs[0].Value)
	assert.Equal(t, 19.0, *obs[0].Value)
	assert.Nil(t, obs[0].CorrectedValue)

	empty, err := src.FetchModeling(context.Background(), ObservationQuery{StationID: "st-2", Pollutant: "pm10"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestOpenWithoutSource(t *testing.T) {
	src, err := Open(context.Background(), "", "")
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestObservationSQLPostgres(t *testing.T) {
	since := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.FixedZone("COT", -5*3600))
	query, args := observationSQL("SELECT ts FROM aq.measurements", ObservationQuery{
		StationID: "st-1",
		Pollutant: "PM10",
		Since:     &since,
		Limit:     100,
	}, dollarPlaceholder, identity, func(t time.Time) any { return t.UTC() })

	assert.Equal(t, "SELECT ts FROM aq.measurements WHERE station_id = $1 AND pollutant = $2 AND ts >= $3 ORDER BY ts LIMIT $4", query)
	require.Len(t, args, 4)
	assert.Equal(t, "pm10", args[1])
	assert.Equal(t, since.UTC(), args[2])
	assert.Equal(t, 100, args[3])
}
