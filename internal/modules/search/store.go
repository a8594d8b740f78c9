// README: Nearby-ride index backed by Redis GEO.
package search

import (
	"context"

	"github.com/redis/go-redis/v9"

	"ridepool/internal/types"
)

const rideGeoKey = "ridepool:rides:origin"

// Hit is an indexed ride and its distance from the query point.
type Hit struct {
	RideID     types.ID
	DistanceKm float64
}

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Add(ctx context.Context, id types.ID, origin types.Point) error {
	return s.redis.GeoAdd(ctx, rideGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: origin.Lng,
		Latitude:  origin.Lat,
	}).Err()
}

func (s *Store) Remove(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, rideGeoKey, string(id)).Err()
}

func (s *Store) Within(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]Hit, error) {
	results, err := s.redis.GeoSearchLocation(ctx, rideGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{RideID: types.ID(r.Name), DistanceKm: r.Dist}
	}
	return hits, nil
}
