// README: Reverse geocoding via the Google Maps API.
package maps

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"googlemaps.github.io/maps"
)

var ErrNoAddress = errors.New("no address found")

// GeocodeService resolves coordinates to a display address. Results are
// cached per coordinate pair since ride endpoints rarely move.
type GeocodeService struct {
	client *maps.Client

	mu    sync.RWMutex
	cache map[maps.LatLng]string
}

func NewGeocodeService(apiKey string) (*GeocodeService, error) {
	client, err := newClient(apiKey)
	if err != nil {
		return nil, err
	}
	return &GeocodeService{client: client, cache: make(map[maps.LatLng]string)}, nil
}

func (s *GeocodeService) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	key := maps.LatLng{Lat: lat, Lng: lng}
	s.mu.RLock()
	name, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return name, nil
	}

	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{LatLng: &key})
	if err != nil {
		return "", fmt.Errorf("geocoding api error: %w", err)
	}
	for _, r := range results {
		if r.FormattedAddress == "" {
			continue
		}
		s.mu.Lock()
		s.cache[key] = r.FormattedAddress
		s.mu.Unlock()
		return r.FormattedAddress, nil
	}
	return "", ErrNoAddress
}
