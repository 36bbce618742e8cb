package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/render"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

// handleV1Catalog returns the pollutant lookup table
// GET /api/v1/catalog
func (s *Server) handleV1Catalog(c *gin.Context) {
	cat := s.pipeline.Catalog()
	pollutants := cat.Pollutants()

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"pollutants": pollutants,
			"palette":    cat.Palette(),
		},
		"meta": gin.H{
			"count": len(pollutants),
		},
	})
}

// handleV1Chart computes a chart from a caller-supplied payload
// POST /api/v1/chart
func (s *Server) handleV1Chart(c *gin.Context) {
	chart, ok := s.buildFromBody(c)
	if !ok {
		return
	}
	s.writeChart(c, chart, "Air quality chart", nil)
}

// handleV1ChartPreview renders a caller-supplied payload as HTML
// POST /api/v1/chart/preview
func (s *Server) handleV1ChartPreview(c *gin.Context) {
	chart, ok := s.buildFromBody(c)
	if !ok {
		return
	}
	s.writePreview(c, chart, render.Options{Title: "Air quality chart"})
}

func (s *Server) buildFromBody(c *gin.Context) (*timeseries.Chart, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes())

	var in timeseries.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}
	chart, err := s.pipeline.Build(in)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return chart, true
}

// writeChart responds with the chart JSON, or the HTML preview when
// format=html is requested.
func (s *Server) writeChart(c *gin.Context, chart *timeseries.Chart, title string, extra gin.H) {
	if c.Query("format") == "html" {
		s.writePreview(c, chart, render.Options{Title: title})
		return
	}

	meta := gin.H{
		"records":      len(chart.Records),
		"series":       len(chart.Series),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		meta[k] = v
	}
	c.JSON(http.StatusOK, gin.H{
		"data": chart,
		"meta": meta,
	})
}

func (s *Server) writePreview(c *gin.Context, chart *timeseries.Chart, o render.Options) {
	var buf bytes.Buffer
	if err := render.Chart(&buf, chart, o); err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
