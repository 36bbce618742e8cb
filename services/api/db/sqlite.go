package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

// SQLiteSource reads stations and observations from a local SQLite file.
// Timestamps are stored as text and reach the pipeline unparsed.
type SQLiteSource struct {
	db *sql.DB
}

var _ Source = (*SQLiteSource)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stations (
    id TEXT PRIMARY KEY,
    name TEXT,
    lat REAL NOT NULL DEFAULT 0,
    lon REAL NOT NULL DEFAULT 0,
    city TEXT,
    dual_calibration INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS measurements (
    station_id TEXT NOT NULL,
    pollutant TEXT NOT NULL,
    ts TEXT NOT NULL,
    value REAL,
    corrected_value REAL,
    raw_value REAL,
    unit TEXT
);
CREATE INDEX IF NOT EXISTS idx_measurements_station ON measurements (station_id, pollutant, ts);
CREATE TABLE IF NOT EXISTS model_values (
    station_id TEXT NOT NULL,
    pollutant TEXT NOT NULL,
    ts TEXT NOT NULL,
    value REAL,
    unit TEXT
);
CREATE INDEX IF NOT EXISTS idx_model_values_station ON model_values (station_id, pollutant, ts);
`

// OpenSQLite opens path and creates the tables when missing.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteSource) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// ListStations returns all station metadata.
func (s *SQLiteSource) ListStations(ctx context.Context) ([]Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, lat, lon, city, dual_calibration FROM stations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]Station, 0)
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// GetStation returns one station, ErrNotFound when it does not exist.
func (s *SQLiteSource) GetStation(ctx context.Context, id string) (*Station, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, lat, lon, city, dual_calibration FROM stations WHERE id = ?`, id)
	st, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStation(row scanner) (Station, error) {
	var (
		st   Station
		name sql.NullString
		city sql.NullString
	)
	if err := row.Scan(&st.ID, &name, &st.Lat, &st.Lon, &city, &st.DualCalibration); err != nil {
		return Station{}, err
	}
	if name.Valid {
		st.Name = &name.String
	}
	if city.Valid {
		st.City = &city.String
	}
	return st, nil
}

// FetchObservations returns measured values for one station and pollutant.
func (s *SQLiteSource) FetchObservations(ctx context.Context, q ObservationQuery) ([]timeseries.Observation, error) {
	return s.fetch(ctx, `SELECT ts, value, corrected_value, raw_value, unit FROM measurements`, q)
}

// FetchModeling returns model-predicted values for one station and pollutant.
func (s *SQLiteSource) FetchModeling(ctx context.Context, q ObservationQuery) ([]timeseries.Observation, error) {
	return s.fetch(ctx, `SELECT ts, value, NULL, NULL, unit FROM model_values`, q)
}

func (s *SQLiteSource) fetch(ctx context.Context, base string, q ObservationQuery) ([]timeseries.Observation, error) {
	query, args := observationSQL(base, q,
		func(int) string { return "?" },
		func(expr string) string { return "julianday(" + expr + ")" },
		func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]timeseries.Observation, 0)
	for rows.Next() {
		var (
			ts                    string
			value, corrected, raw sql.NullFloat64
			unit                  sql.NullString
		)
		if err := rows.Scan(&ts, &value, &corrected, &raw, &unit); err != nil {
			return nil, err
		}
		out = append(out, timeseries.Observation{
			Timestamp:      timeseries.StringTimestamp(ts),
			Value:          nullFloat(value),
			CorrectedValue: nullFloat(corrected),
			RawValue:       nullFloat(raw),
			Unit:           unit.String,
		})
	}
	return out, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return timeseries.Float(v.Float64)
}
