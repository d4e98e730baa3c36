package handlers

import (
	"net/http"
	"strconv"

	"gate-catering-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// FlightHandler serves the flight listing view.
type FlightHandler struct {
	flights *services.FlightService
}

func NewFlightHandler(flights *services.FlightService) *FlightHandler {
	return &FlightHandler{flights: flights}
}

// ListFlights returns upcoming flights, filtered by q. Upstream failures are
// reported as a warning next to the fallback dataset, never as an error.
// The listing is fetched when the view opens (or with refresh=true); filter
// requests reuse it.
//
// GET /api/v1/flights?date=2025-11-03&iataCode=MTY&source=backend&q=am
func (h *FlightHandler) ListFlights(c *gin.Context) {
	listing, fetchedAt := h.flights.Listing(c.Request.Context(), services.FlightQuery{
		Date:     c.Query("date"),
		IataCode: c.Query("iataCode"),
		Source:   c.Query("source"),
	}, wantsRefresh(c))

	total := len(listing.Flights)
	listing.Flights = services.FilterFlights(listing.Flights, c.Query("q"))

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"source":     listing.Source,
		"warning":    listing.Warning,
		"total":      total,
		"count":      len(listing.Flights),
		"flights":    listing.Flights,
		"fetched_at": fetchedAt,
	})
}

func wantsRefresh(c *gin.Context) bool {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	return refresh
}

// GetFlight proxies GET /api/flights/{id}.
func (h *FlightHandler) GetFlight(c *gin.Context) {
	record, err := h.flights.FlightByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, record)
}
