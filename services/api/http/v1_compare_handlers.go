package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/db"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

const maxCompareStations = 12

// handleV1CompareChart returns one pollutant across several stations
// GET /api/v1/compare/chart?stations=a,b&pollutant=pm10&step=hour
func (s *Server) handleV1CompareChart(c *gin.Context) {
	stations := parseList(c.Query("stations"), false)
	if len(stations) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stations is required"})
		return
	}
	if len(stations) > maxCompareStations {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d stations can be compared", maxCompareStations)})
		return
	}
	pollutant := strings.ToLower(strings.TrimSpace(c.Query("pollutant")))
	if pollutant == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pollutant is required"})
		return
	}
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
	since, until, ok := s.parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout())
	defer cancel()

	meta := make([]*db.Station, len(stations))
	series := make([][]timeseries.Observation, len(stations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, id := range stations {
		g.Go(func() error {
			st, err := s.source.GetStation(gctx, id)
			if err != nil {
				return err
			}
			meta[i] = st
			return nil
		})
		g.Go(func() error {
			obs, err := s.source.FetchObservations(gctx, db.ObservationQuery{
				StationID: id,
				Pollutant: pollutant,
				Limit:     s.cfg.DefaultLimit,
				Since:     since,
				Until:     until,
			})
			if err != nil {
				return fmt.Errorf("fetch %s at %s: %w", pollutant, id, err)
			}
			series[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.respondError(c, err)
		return
	}

	data := make(map[string][]timeseries.Observation, len(stations))
	names := make(map[string]string, len(stations))
	for i, id := range stations {
		data[id] = series[i]
		names[id] = meta[i].DisplayName()
	}

	chart, err := s.pipeline.Build(timeseries.Input{
		Data:         data,
		SelectedKeys: stations,
		Mode:         timeseries.ModeComparison,
		Pollutant:    pollutant,
		TimeStep:     step,
		DisplayWidth: width,
		StationNames: names,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	title := s.pipeline.Catalog().Name(pollutant) + " comparison"
	s.writeChart(c, chart, title, gin.H{"pollutant": pollutant, "stations": meta})
}
