// README: Vehicle HTTP handlers (registration).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepool/internal/http/middleware"
	"ridepool/internal/modules/vehicle"
	"ridepool/internal/types"
)

type VehicleHandler struct {
	vehicles *vehicle.Service
}

func NewVehicleHandler(vehicles *vehicle.Service) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

type registerVehicleReq struct {
	Model   string  `json:"model"`
	Plate   string  `json:"plate"`
	Seats   int     `json:"seats"`
	Mileage float64 `json:"mileage"`
}

func (h *VehicleHandler) Register(c *gin.Context) {
	var req registerVehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.vehicles.Register(c.Request.Context(), vehicle.RegisterCommand{
		DriverID: types.ID(middleware.CallerUID(c)),
		Model:    req.Model,
		Plate:    req.Plate,
		Seats:    req.Seats,
		Mileage:  req.Mileage,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, v)
}
