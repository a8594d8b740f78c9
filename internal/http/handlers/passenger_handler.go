// README: Passenger handlers for eligibility, checkout, join and leave.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepool/internal/http/middleware"
	"ridepool/internal/modules/pricing"
	"ridepool/internal/modules/ride"
	"ridepool/internal/types"
)

type PassengerHandler struct {
	rides *ride.Service
}

func NewPassengerHandler(rides *ride.Service) *PassengerHandler {
	return &PassengerHandler{rides: rides}
}

type pointsReq struct {
	Pickup  string `json:"pickup"`
	Dropoff string `json:"dropoff"`
}

type joinReq struct {
	pointsReq
	PaymentRef       string `json:"payment_ref"`
	PaymentSignature string `json:"payment_signature"`
}

type checkoutResp struct {
	ride.EligibilityResult
	OrderRef string `json:"order_ref,omitempty"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (h *PassengerHandler) checkoutCommand(c *gin.Context, id types.ID, req pointsReq) ride.CheckoutCommand {
	return ride.CheckoutCommand{
		RideID:       id,
		PassengerID:  types.ID(middleware.CallerUID(c)),
		Verification: ride.VerificationStatus(middleware.CallerVerification(c)),
		Pickup:       req.Pickup,
		Dropoff:      req.Dropoff,
	}
}

// Eligibility answers whether the caller could join right now. A denial is
// still a 200; the reason code says why.
func (h *PassengerHandler) Eligibility(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	var req pointsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.rides.CheckEligibility(c.Request.Context(), h.checkoutCommand(c, id, req))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *PassengerHandler) Checkout(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	var req pointsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	out, err := h.rides.Checkout(c.Request.Context(), h.checkoutCommand(c, id, req))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, checkoutResp{
		EligibilityResult: out.Eligibility,
		OrderRef:          out.OrderRef,
		Amount:            pricing.FormatAmount(float64(out.Amount.Amount) / 100),
		Currency:          out.Amount.Currency,
	})
}

// Join answers 200 when seated and 409 with the reason code when denied.
func (h *PassengerHandler) Join(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	var req joinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.rides.Join(c.Request.Context(), ride.JoinCommand{
		RideID:           id,
		PassengerID:      types.ID(middleware.CallerUID(c)),
		Verification:     ride.VerificationStatus(middleware.CallerVerification(c)),
		Pickup:           req.Pickup,
		Dropoff:          req.Dropoff,
		PaymentRef:       req.PaymentRef,
		PaymentSignature: req.PaymentSignature,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	if !res.Allowed {
		writeJSON(c, http.StatusConflict, res)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *PassengerHandler) Leave(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	err := h.rides.Leave(c.Request.Context(), ride.LeaveCommand{RideID: id, PassengerID: types.ID(middleware.CallerUID(c))})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
