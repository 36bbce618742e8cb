package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/db"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

// fetchConcurrency bounds parallel source queries per request.
const fetchConcurrency = 8

// handleV1ListStations returns all stations
// GET /api/v1/core/stations
func (s *Server) handleV1ListStations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout())
	defer cancel()

	stations, err := s.source.ListStations(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stations,
		"meta": gin.H{
			"count": len(stations),
		},
	})
}

// handleV1GetStation returns details for a specific station
// GET /api/v1/core/stations/:id
func (s *Server) handleV1GetStation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout())
	defer cancel()

	station, err := s.source.GetStation(ctx, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": station,
	})
}

// handleV1StationChart returns the chart of several pollutants at one station
// GET /api/v1/core/stations/:id/chart?pollutants=pm10,pm25&step=hour&start=...&end=...
func (s *Server) handleV1StationChart(c *gin.Context) {
	stationID := c.Param("id")

	step, err := timeseries.ParseStep(c.Query("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	width, err := timeseries.ParseWidth(c.Query("width"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	withModeling := true
	if v := c.Query("modeling"); v != "" {
		if withModeling, err = strconv.ParseBool(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid modeling parameter"})
			return
		}
	}
	since, until, ok := s.parseWindow(c)
	if !ok {
		return
	}

	pollutants := parseList(c.Query("pollutants"), true)
	if len(pollutants) == 0 {
		for _, p := range s.pipeline.Catalog().Pollutants() {
			pollutants = append(pollutants, p.Code)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout())
	defer cancel()

	station, err := s.source.GetStation(ctx, stationID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	measured, modeled, err := s.fetchPollutants(ctx, stationID, pollutants, since, until, withModeling)
	if err != nil {
		s.respondError(c, err)
		return
	}

	chart, err := s.pipeline.Build(timeseries.Input{
		Data:            measured,
		Modeling:        modeled,
		SelectedKeys:    pollutants,
		Mode:            timeseries.ModeNormal,
		TimeStep:        step,
		DisplayWidth:    width,
		DualCalibration: station.DualCalibration,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.writeChart(c, chart, station.DisplayName(), gin.H{"station": station})
}

// fetchPollutants queries observations and model values of every pollutant
// concurrently.
func (s *Server) fetchPollutants(ctx context.Context, stationID string, pollutants []string, since, until *time.Time, withModeling bool) (map[string][]timeseries.Observation, map[string][]timeseries.Observation, error) {
	measured := make([][]timeseries.Observation, len(pollutants))
	modeled := make([][]timeseries.Observation, len(pollutants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, code := range pollutants {
		q := db.ObservationQuery{
			StationID: stationID,
			Pollutant: code,
			Limit:     s.cfg.DefaultLimit,
			Since:     since,
			Until:     until,
		}
		g.Go(func() error {
			obs, err := s.source.FetchObservations(gctx, q)
			if err != nil {
				return fmt.Errorf("fetch %s observations: %w", code, err)
			}
			measured[i] = obs
			return nil
		})
		if withModeling {
			g.Go(func() error {
				obs, err := s.source.FetchModeling(gctx, q)
				if err != nil {
					return fmt.Errorf("fetch %s modeling: %w", code, err)
				}
				modeled[i] = obs
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	data := make(map[string][]timeseries.Observation, len(pollutants))
	modeling := make(map[string][]timeseries.Observation)
	for i, code := range pollutants {
		data[code] = measured[i]
		if len(modeled[i]) > 0 {
			modeling[code] = modeled[i]
		}
	}
	return data, modeling, nil
}
