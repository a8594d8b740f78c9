// README: Location parsing and validation for pickup, dropoff and ride endpoints.
package ride

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ridepool/internal/types"
)

var ErrInvalidLocation = errors.New("invalid location")

// Location is a raw WGS84 coordinate; it is authoritative over any geocoded name.
type Location struct {
	Lat float64
	Lng float64
}

// ParseLocation reads a "lat,lng" string.
func ParseLocation(s string) (Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Location{}, fmt.Errorf("%w: %q is not lat,lng", ErrInvalidLocation, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Location{}, fmt.Errorf("%w: latitude %q", ErrInvalidLocation, parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Location{}, fmt.Errorf("%w: longitude %q", ErrInvalidLocation, parts[1])
	}
	loc := Location{Lat: lat, Lng: lng}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidLocation, l.Lat)
	}
	if math.IsNaN(l.Lng) || l.Lng < -180 || l.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidLocation, l.Lng)
	}
	return nil
}

// String formats the shortest "lat,lng" that parses back to the same values.
func (l Location) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

func (l Location) Point() types.Point {
	return types.Point{Lat: l.Lat, Lng: l.Lng}
}
