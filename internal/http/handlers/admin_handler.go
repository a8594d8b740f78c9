// README: Admin HTTP handlers (blocking rides).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepool/internal/http/middleware"
	"ridepool/internal/modules/ride"
	"ridepool/internal/types"
)

type AdminHandler struct {
	rides *ride.Service
}

func NewAdminHandler(rides *ride.Service) *AdminHandler {
	return &AdminHandler{rides: rides}
}

func (h *AdminHandler) Block(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	var req reasonReq
	_ = c.ShouldBindJSON(&req)
	err := h.rides.Block(c.Request.Context(), ride.BlockCommand{
		RideID:  id,
		AdminID: types.ID(middleware.CallerUID(c)),
		Reason:  req.Reason,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ride_id": id, "status": ride.StatusBlocked})
}
