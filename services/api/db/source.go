package db

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

// ErrNotFound is returned when a station does not exist.
var ErrNotFound = errors.New("not found")

// Source is a read-only provider of station metadata and observations.
type Source interface {
	ListStations(ctx context.Context) ([]Station, error)
	GetStation(ctx context.Context, id string) (*Station, error)
	FetchObservations(ctx context.Context, q ObservationQuery) ([]timeseries.Observation, error)
	FetchModeling(ctx context.Context, q ObservationQuery) ([]timeseries.Observation, error)
	Close()
}

// Station represents a monitoring station.
type Station struct {
	ID   string  `json:"id"`
	Name *string `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	City *string `json:"city,omitempty"`
	// DualCalibration marks stations publishing corrected and raw values.
	DualCalibration bool `json:"dual_calibration"`
}

// DisplayName returns the station name, or its id when unnamed.
func (s Station) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	return s.ID
}

// ObservationQuery holds filters for retrieving one pollutant of one station.
type ObservationQuery struct {
	StationID string
	Pollutant string
	Limit     int
	Since     *time.Time
	Until     *time.Time
}

// Open returns the Postgres source when databaseURL is set, else the SQLite
// source when sqlitePath is set. Both empty yields a nil Source.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Source, error) {
	switch {
	case databaseURL != "":
		store, err := New(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case sqlitePath != "":
		src, err := OpenSQLite(ctx, sqlitePath)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, nil
}

// observationSQL builds the measurement or model query. placeholder renders
// the n-th bind parameter and tsExpr wraps the timestamp column for
// range comparisons.
func observationSQL(base string, q ObservationQuery, placeholder func(int) string, tsExpr func(string) string, bindTime func(time.Time) any) (string, []any) {
	args := []any{q.StationID, strings.ToLower(q.Pollutant)}
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(" WHERE station_id = " + placeholder(1) + " AND pollutant = " + placeholder(2))
	if q.Since != nil {
		args = append(args, bindTime(*q.Since))
		sb.WriteString(" AND " + tsExpr("ts") + " >= " + tsExpr(placeholder(len(args))))
	}
	if q.Until != nil {
		args = append(args, bindTime(*q.Until))
		sb.WriteString(" AND " + tsExpr("ts") + " <= " + tsExpr(placeholder(len(args))))
	}
	sb.WriteString(" ORDER BY " + tsExpr("ts"))
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(" LIMIT " + placeholder(len(args)))
	}
	return sb.String(), args
}

func dollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

func identity(expr string) string { return expr }
