// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ridepool/internal/http/handlers"
	"ridepool/internal/http/middleware"
	"ridepool/internal/infra"
	"ridepool/internal/modules/ride"
	"ridepool/internal/modules/search"
	"ridepool/internal/modules/vehicle"
)

type RouterDeps struct {
	Rides    *ride.Service
	Vehicles *vehicle.Service
	Search   *search.Service
	Verifier infra.TokenVerifier
	Logger   *slog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(log), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	driverOnly := middleware.RequireRole(middleware.RoleDriver)
	vehicleHandler := handlers.NewVehicleHandler(deps.Vehicles)
	api.POST("/vehicles", driverOnly, vehicleHandler.Register)

	rideHandler := handlers.NewRideHandler(deps.Rides, deps.Search)
	api.GET("/rides/nearby", rideHandler.Nearby)
	api.GET("/rides/:id", rideHandler.Get)

	driverHandler := handlers.NewDriverHandler(deps.Rides)
	api.POST("/rides", driverOnly, driverHandler.Create)
	api.PATCH("/rides/:id/schedule", driverOnly, driverHandler.Reschedule)
	api.POST("/rides/:id/start", driverOnly, driverHandler.Start)
	api.POST("/rides/:id/complete", driverOnly, driverHandler.Complete)
	api.POST("/rides/:id/cancel", driverOnly, driverHandler.Cancel)

	adminHandler := handlers.NewAdminHandler(deps.Rides)
	api.POST("/rides/:id/block", middleware.RequireRole(middleware.RoleAdmin), adminHandler.Block)

	passengerHandler := handlers.NewPassengerHandler(deps.Rides)
	api.POST("/rides/:id/eligibility", passengerHandler.Eligibility)
	api.POST("/rides/:id/checkout", passengerHandler.Checkout)
	api.POST("/rides/:id/join", passengerHandler.Join)
	api.POST("/rides/:id/leave", passengerHandler.Leave)

	return r
}
