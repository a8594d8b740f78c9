// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ridepool/internal/lock"
	"ridepool/internal/modules/pricing"
	"ridepool/internal/modules/ride"
	"ridepool/internal/modules/search"
	"ridepool/internal/modules/vehicle"
	"ridepool/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts only the canonical 36-character UUID form used for ride
// and vehicle IDs; uuid.Parse alone also takes the braced and urn forms.
func isValidID(v string) bool {
	if len(v) != 36 {
		return false
	}
	_, err := uuid.Parse(v)
	return err == nil
}

func rideID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return "", false
	}
	return types.ID(id), true
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339, v)
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrBadRequest),
		errors.Is(err, ride.ErrInvalidLocation),
		errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, vehicle.ErrInvalidMileage),
		errors.Is(err, vehicle.ErrInvalidVehicle),
		errors.Is(err, search.ErrInvalidRadius):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrForbidden), errors.Is(err, vehicle.ErrNotOwner):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ride.ErrNotFound), errors.Is(err, vehicle.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrPaymentNotVerified):
		writeError(c, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, lock.ErrLocked):
		writeError(c, http.StatusLocked, "ride is busy, retry shortly")
	case errors.Is(err, ride.ErrConflict),
		errors.Is(err, ride.ErrInvalidTransition),
		errors.Is(err, ride.ErrNotPending),
		errors.Is(err, ride.ErrCapacityExceeded),
		errors.Is(err, ride.ErrNotPassenger):
		writeError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
