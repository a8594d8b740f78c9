// README: Read-side ride handlers: fetch one ride and search nearby rides.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridepool/internal/modules/ride"
	"ridepool/internal/modules/search"
)

type RideHandler struct {
	rides  *ride.Service
	search *search.Service
}

func NewRideHandler(rides *ride.Service, searchSvc *search.Service) *RideHandler {
	return &RideHandler{rides: rides, search: searchSvc}
}

func (h *RideHandler) Get(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	r, err := h.rides.Get(c.Request.Context(), id)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, h.rides.Describe(c.Request.Context(), r))
}

type nearbyItem struct {
	ride.View
	DistanceKm string `json:"distance_km"`
}

// Nearby takes ?at=lat,lng and an optional radius_km.
func (h *RideHandler) Nearby(c *gin.Context) {
	at, err := ride.ParseLocation(c.Query("at"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "at must be lat,lng")
		return
	}
	var radius float64
	if v := c.Query("radius_km"); v != "" {
		radius, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid radius_km")
			return
		}
	}
	results, err := h.search.Nearby(c.Request.Context(), at.Point(), radius)
	if err != nil {
		writeRideError(c, err)
		return
	}
	items := make([]nearbyItem, 0, len(results))
	for _, res := range results {
		items = append(items, nearbyItem{
			View:       ride.NewView(res.Ride),
			DistanceKm: strconv.FormatFloat(res.DistanceKm, 'f', 2, 64),
		})
	}
	writeJSON(c, http.StatusOK, map[string]any{"rides": items})
}
