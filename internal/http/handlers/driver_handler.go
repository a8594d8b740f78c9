// README: Driver handlers for offering, rescheduling and moving a ride through its lifecycle.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepool/internal/http/middleware"
	"ridepool/internal/modules/ride"
	"ridepool/internal/types"
)

type DriverHandler struct {
	rides *ride.Service
}

func NewDriverHandler(rides *ride.Service) *DriverHandler {
	return &DriverHandler{rides: rides}
}

type createRideReq struct {
	VehicleID   string   `json:"vehicle_id"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	DepartAt    string   `json:"depart_at"`
	DistanceKm  *float64 `json:"distance_km"`
	FuelPrice   float64  `json:"fuel_price"`
	TotalPeople int      `json:"total_people"`
}

func (h *DriverHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.VehicleID) {
		writeError(c, http.StatusBadRequest, "invalid vehicle_id")
		return
	}
	origin, err := ride.ParseLocation(req.Origin)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid origin")
		return
	}
	destination, err := ride.ParseLocation(req.Destination)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid destination")
		return
	}
	departAt, err := parseTime(req.DepartAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "depart_at must be RFC3339")
		return
	}

	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		DriverID:    types.ID(middleware.CallerUID(c)),
		VehicleID:   types.ID(req.VehicleID),
		Origin:      origin,
		Destination: destination,
		DepartAt:    departAt,
		DistanceKm:  req.DistanceKm,
		FuelPrice:   req.FuelPrice,
		TotalPeople: req.TotalPeople,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, h.rides.Describe(c.Request.Context(), r))
}

type rescheduleReq struct {
	DepartAt string `json:"depart_at"`
}

func (h *DriverHandler) Reschedule(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	var req rescheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	departAt, err := parseTime(req.DepartAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "depart_at must be RFC3339")
		return
	}
	err = h.rides.Reschedule(c.Request.Context(), ride.RescheduleCommand{
		RideID:   id,
		DriverID: types.ID(middleware.CallerUID(c)),
		DepartAt: departAt,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ride_id": id, "depart_at": departAt})
}

func (h *DriverHandler) Start(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	err := h.rides.Start(c.Request.Context(), ride.StartCommand{RideID: id, DriverID: types.ID(middleware.CallerUID(c))})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ride_id": id, "status": ride.StatusStarted})
}

func (h *DriverHandler) Complete(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	err := h.rides.Complete(c.Request.Context(), ride.CompleteCommand{RideID: id, DriverID: types.ID(middleware.CallerUID(c))})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ride_id": id, "status": ride.StatusCompleted})
}

type reasonReq struct {
	Reason string `json:"reason"`
}

func (h *DriverHandler) Cancel(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	var req reasonReq
	// body is optional
	_ = c.ShouldBindJSON(&req)
	err := h.rides.Cancel(c.Request.Context(), ride.CancelCommand{
		RideID:   id,
		DriverID: types.ID(middleware.CallerUID(c)),
		Reason:   req.Reason,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ride_id": id, "status": ride.StatusCancelled})
}
