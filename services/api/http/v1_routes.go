package http

import "github.com/gin-gonic/gin"

const apiVersion = "v1"

// registerV1Routes sets up the v1 API structure
// Groups: /api/v1 (payload charts), /api/v1/core, /api/v1/compare
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header

	// Payload endpoints - caller supplies the observations
	{
		v1.GET("/catalog", s.handleV1Catalog)
		v1.POST("/chart", s.handleV1Chart)
		v1.POST("/chart/preview", s.handleV1ChartPreview)
	}

	// Core endpoints - station metadata and charts from the observation source
	core := v1.Group("/core", s.requireSource())
	{
		core.GET("/stations", s.handleV1ListStations)
		core.GET("/stations/:id", s.handleV1GetStation)
		core.GET("/stations/:id/chart", s.handleV1StationChart)
	}

	// Compare endpoints - one pollutant across stations
	compare := v1.Group("/compare", s.requireSource())
	{
		compare.GET("/chart", s.handleV1CompareChart)
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", apiVersion)
		c.Next()
	}
}
