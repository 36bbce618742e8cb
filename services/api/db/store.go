package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

// Store wraps read-only Postgres access helpers.
type Store struct {
	pool *pgxpool.Pool
}

var _ Source = (*Store)(nil)

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const listStationsSQL = `
    SELECT id, name, lat, lon, city, dual_calibration
    FROM aq.stations
    ORDER BY id
`

// ListStations returns all station metadata.
func (s *Store) ListStations(ctx context.Context) ([]Station, error) {
	rows, err := s.pool.Query(ctx, listStationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]Station, 0)
	for rows.Next() {
		var st Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Lat, &st.Lon, &st.City, &st.DualCalibration); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

const stationSQL = `
    SELECT id, name, lat, lon, city, dual_calibration
    FROM aq.stations
    WHERE id = $1
`

// GetStation returns one station, ErrNotFound when it does not exist.
func (s *Store) GetStation(ctx context.Context, id string) (*Station, error) {
	var st Station
	err := s.pool.QueryRow(ctx, stationSQL, id).Scan(&st.ID, &st.Name, &st.Lat, &st.Lon, &st.City, &st.DualCalibration)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

const measurementsBase = `
    SELECT ts, value, corrected_value, raw_value, unit
    FROM aq.measurements`

const modelValuesBase = `
    SELECT ts, value, NULL::double precision AS corrected_value, NULL::double precision AS raw_value, unit
    FROM aq.model_values`

// FetchObservations returns measured values for one station and pollutant.
func (s *Store) FetchObservations(ctx context.Context, q ObservationQuery) ([]timeseries.Observation, error) {
	return s.fetch(ctx, measurementsBase, q)
}

// FetchModeling returns model-predicted values for one station and pollutant.
func (s *Store) FetchModeling(ctx context.Context, q ObservationQuery) ([]timeseries.Observation, error) {
	return s.fetch(ctx, modelValuesBase, q)
}

func (s *Store) fetch(ctx context.Context, base string, q ObservationQuery) ([]timeseries.Observation, error) {
	sql, args := observationSQL(base, q, dollarPlaceholder, identity, func(t time.Time) any { return t.UTC() })

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]timeseries.Observation, 0)
	for rows.Next() {
		var (
			ts   time.Time
			obs  timeseries.Observation
			unit *string
		)
		if err := rows.Scan(&ts, &obs.Value, &obs.CorrectedValue, &obs.RawValue, &unit); err != nil {
			return nil, err
		}
		obs.Timestamp = timeseries.MillisTimestamp(ts.UnixMilli())
		if unit != nil {
			obs.Unit = *unit
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}
