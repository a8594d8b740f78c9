// README: Entry point; loads config, wires services and serves the HTTP API until signalled.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ridepool/internal/config"
	"ridepool/internal/events"
	httptransport "ridepool/internal/http"
	"ridepool/internal/infra"
	"ridepool/internal/lock"
	"ridepool/internal/logging"
	"ridepool/internal/maps"
	"ridepool/internal/modules/payment"
	"ridepool/internal/modules/ride"
	"ridepool/internal/modules/search"
	"ridepool/internal/modules/vehicle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	if err := run(cfg, log); err != nil {
		log.Error("ridepool-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fbApp, err := infra.NewFirebaseApp(ctx, infra.FirebaseOptions{
		ProjectID:       cfg.Firebase.ProjectID,
		CredentialsFile: cfg.Firebase.CredentialsFile,
	})
	if err != nil {
		return err
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, fbApp, cfg.Firebase.CheckRevoked)
	if err != nil {
		return err
	}

	var (
		rideStore    ride.Repository
		vehicleStore vehicle.Repository
	)
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		rideStore = ride.NewStore(pool)
		vehicleStore = vehicle.NewStore(pool)
	} else {
		log.Warn("RIDEPOOL_DB_DSN not set; rides and vehicles are kept in memory")
		rideStore = ride.NewMemoryStore()
		vehicleStore = vehicle.NewMemoryStore()
	}

	deps := ride.Deps{Logger: log, Currency: cfg.Payment.Currency}
	var index search.Index
	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Locker = lock.NewRedis(rdb, cfg.Lock.TTL, cfg.Lock.Attempts)
		index = search.NewStore(rdb)
	} else {
		log.Warn("RIDEPOOL_REDIS_ADDR not set; using a process-local ride lock")
		deps.Locker = lock.NewLocal()
		index = search.NewMemoryIndex()
	}
	deps.Index = index

	if cfg.Payment.StripeKey != "" {
		gw, err := payment.NewStripe(cfg.Payment.StripeKey)
		if err != nil {
			return err
		}
		deps.Payments = gw
	} else {
		log.Warn("RIDEPOOL_STRIPE_KEY not set; using the signed-order payment gateway")
		deps.Payments = payment.NewHMAC(cfg.Payment.Secret)
	}

	if cfg.Maps.APIKey != "" {
		routes, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		geocoder, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		deps.Routes = routes
		deps.Geocoder = geocoder
	}

	var publishers events.Fanout
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPub.Close()
		publishers = append(publishers, kafkaPub)
	}
	if cfg.Firebase.Push {
		msgClient, err := fbApp.Messaging(ctx)
		if err != nil {
			return err
		}
		publishers = append(publishers, events.NewPushPublisher(msgClient))
	}
	if len(publishers) > 0 {
		deps.Publisher = publishers
	}

	vehicleSvc := vehicle.NewService(vehicleStore)
	deps.Vehicles = vehicleSvc
	rideSvc := ride.NewService(rideStore, deps)
	searchSvc := search.NewService(index, rideSvc, cfg.Search.RadiusKm, log)

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Rides:    rideSvc,
		Vehicles: vehicleSvc,
		Search:   searchSvc,
		Verifier: verifier,
		Logger:   log,
	})
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ridepool-api listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
