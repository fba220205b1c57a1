package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SearchTrains - GET /api/trains/search?from=NDLS&to=BCT&date=2026-01-02
func (h *Handlers) SearchTrains(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	date := c.Query("date")

	if from == "" || to == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from, to and date are required"})
		return
	}

	resp, err := h.services.Trains.Search(c.Request.Context(), from, to, date)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTrain - GET /api/trains/:number
func (h *Handlers) GetTrain(c *gin.Context) {
	train, err := h.services.Trains.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, train)
}

// GetFare - GET /api/trains/:number/fare?from=NDLS&to=KOTA&class=3A
func (h *Handlers) GetFare(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	classType := c.Query("class")

	if from == "" || to == "" || classType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from, to and class are required"})
		return
	}

	resp, err := h.services.Trains.Fare(c.Request.Context(), c.Param("number"), from, to, classType)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListStations - GET /api/stations
func (h *Handlers) ListStations(c *gin.Context) {
	stations, err := h.services.Trains.Stations(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stations": stations, "count": len(stations)})
}

// SearchStations - GET /api/stations/search?q=delhi
// Fuzzy name search against the Elasticsearch index, falling back to
// the SQL directory when the index is unavailable.
func (h *Handlers) SearchStations(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if h.stations != nil {
		stations, err := h.stations.Search(c.Request.Context(), query, size)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"stations": stations, "count": len(stations)})
			return
		}
		slog.Warn("Station index search failed, falling back to directory", "error", err)
	}

	stations, err := h.services.Trains.Stations(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stations": stations, "count": len(stations)})
}
