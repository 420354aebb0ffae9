// README: Flight search handler (GET /api/travel/search_flights).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripbot/internal/flights"
)

type FlightSearcher interface {
	Search(ctx context.Context, r flights.SearchRequest) ([]flights.Offer, error)
}

type FlightHandler struct {
	flights FlightSearcher
	timeout time.Duration
}

func NewFlightHandler(svc FlightSearcher, timeout time.Duration) *FlightHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FlightHandler{flights: svc, timeout: timeout}
}

type flightSearchQuery struct {
	Source      string  `form:"source" binding:"required"`
	Destination string  `form:"destination" binding:"required"`
	TravelDate  string  `form:"travel_date" binding:"required"`
	ReturnDate  string  `form:"return_date"`
	Adults      int     `form:"adults,default=1"`
	Children    int     `form:"children"`
	Infants     int     `form:"infants"`
	TravelClass string  `form:"travel_class,default=ECONOMY"`
	NonStop     bool    `form:"non_stop"`
	MaxPrice    float64 `form:"max_price"`
	Currency    string  `form:"currency"`
	MaxResults  int     `form:"max_results"`
	Sort        string  `form:"sort"`
}

// Search handles GET /api/travel/search_flights.
func (h *FlightHandler) Search(c *gin.Context) {
	var q flightSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_flight_search"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	offers, err := h.flights.Search(ctx, flights.SearchRequest{
		Origin:        q.Source,
		Destination:   q.Destination,
		DepartureDate: q.TravelDate,
		ReturnDate:    q.ReturnDate,
		Adults:        q.Adults,
		Children:      q.Children,
		Infants:       q.Infants,
		TravelClass:   q.TravelClass,
		NonStop:       q.NonStop,
		MaxPrice:      q.MaxPrice,
		Currency:      q.Currency,
		MaxResults:    q.MaxResults,
		SortBy:        q.Sort,
	})
	if err != nil {
		writeFlightError(c, err)
		return
	}
	if offers == nil {
		offers = []flights.Offer{}
	}
	writeJSON(c, http.StatusOK, gin.H{
		"status":  "success",
		"data":    offers,
		"message": fmt.Sprintf("Found %d flights", len(offers)),
	})
}

func writeFlightError(c *gin.Context, err error) {
	var verr *flights.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_flight_search", Fields: []string{verr.Field}})
	case errors.Is(err, flights.ErrNotConfigured):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, flights.ErrUpstream):
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, "Failed to search for flights. Please try again later.")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
