// README: Nearby ride search over the geo index, hydrated from the ride store.
package search

import (
	"context"
	"errors"
	"log/slog"

	"ridepool/internal/modules/ride"
	"ridepool/internal/types"
)

const (
	DefaultRadiusKm = 5.0
	maxResults      = 50
)

var ErrInvalidRadius = errors.New("search radius must be positive")

type Index interface {
	ride.Index
	Within(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]Hit, error)
}

type RideReader interface {
	Get(ctx context.Context, id types.ID) (*ride.Ride, error)
}

type Service struct {
	index    Index
	rides    RideReader
	radiusKm float64
	log      *slog.Logger
}

func NewService(index Index, rides RideReader, defaultRadiusKm float64, log *slog.Logger) *Service {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultRadiusKm
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{index: index, rides: rides, radiusKm: defaultRadiusKm, log: log}
}

// Result is a joinable ride near the query point.
type Result struct {
	Ride       *ride.Ride
	DistanceKm float64
}

// Nearby lists pending rides with free seats whose origin lies within
// radiusKm of p, nearest first. A zero radius uses the configured default.
// Entries that no longer accept joins are dropped from the index.
func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]Result, error) {
	if radiusKm == 0 {
		radiusKm = s.radiusKm
	}
	if radiusKm < 0 {
		return nil, ErrInvalidRadius
	}
	if err := (ride.Location{Lat: p.Lat, Lng: p.Lng}).Validate(); err != nil {
		return nil, err
	}
	hits, err := s.index.Within(ctx, p, radiusKm, maxResults)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		r, err := s.rides.Get(ctx, h.RideID)
		if errors.Is(err, ride.ErrNotFound) {
			s.prune(ctx, h.RideID)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !ride.AcceptsJoins(r) || ride.IsFull(r) {
			s.prune(ctx, h.RideID)
			continue
		}
		out = append(out, Result{Ride: r, DistanceKm: h.DistanceKm})
	}
	return out, nil
}

func (s *Service) prune(ctx context.Context, id types.ID) {
	if err := s.index.Remove(ctx, id); err != nil {
		s.log.Warn("prune stale ride from index", "ride_id", id, "error", err)
	}
}
